package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/planner"
	"weekly-meal-planner/internal/storage"
)

const (
	// DefaultName is used when a template is saved without a name.
	DefaultName = "My Template"
	// legacyName labels templates saved before they carried a name.
	legacyName = "Template"
)

// Template is a reusable day layout. Only one is kept at a time.
type Template struct {
	Name    string         `json:"name"`
	Data    planner.DayMap `json:"data"`
	SavedAt int64          `json:"savedAt"` // epoch ms
}

// Store persists the single saved template.
type Store struct {
	kv  storage.KeyValueStore
	log *logger.Logger
	now func() time.Time
}

// NewStore creates a template store.
func NewStore(kv storage.KeyValueStore, log *logger.Logger) *Store {
	return &Store{kv: kv, log: log.WithComponent("templates"), now: time.Now}
}

// Save overwrites the saved template. Items are stored unlocked.
func (s *Store) Save(ctx context.Context, name string, days planner.DayMap) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}

	data := days.Clone()
	for _, items := range data {
		for i := range items {
			items[i].Locked = false
		}
	}

	t := &Template{Name: name, Data: data, SavedAt: s.now().UnixMilli()}
	if err := storage.Persist(ctx, s.kv, storage.KeyTemplate, t); err != nil {
		s.log.Error("Failed to save template", "key", storage.KeyTemplate, "error", err)
		return nil, err
	}
	s.log.Info("Template saved", "name", name, "dishes", data.Count())
	return t, nil
}

// Load returns the saved template, or nil when there is none. Templates
// stored as a bare day map are read with a generic name.
func (s *Store) Load(ctx context.Context) (*Template, error) {
	raw, err := s.kv.Get(ctx, storage.KeyTemplate)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template: %w", err)
	}

	if _, ok := probe["data"]; ok {
		var t Template
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal template: %w", err)
		}
		if t.Name == "" {
			t.Name = legacyName
		}
		if t.Data == nil {
			t.Data = planner.DayMap{}
		}
		return &t, nil
	}

	var days planner.DayMap
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, fmt.Errorf("failed to unmarshal legacy template: %w", err)
	}
	return &Template{Name: legacyName, Data: days}, nil
}

// Delete removes the saved template. Deleting when none exists is not an error.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.kv.Delete(ctx, storage.KeyTemplate); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}
