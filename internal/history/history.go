package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/planner"
	"weekly-meal-planner/internal/shared"
	"weekly-meal-planner/internal/storage"
)

// ErrNotFound is returned when a log index is out of range.
var ErrNotFound = errors.New("log entry not found")

// Entry is a saved copy of a week's plan.
type Entry struct {
	ID        string            `json:"id,omitempty"`
	StartDate string            `json:"startDate"`
	EndDate   string            `json:"endDate"`
	Plan      planner.PlanState `json:"plan"`
	Timestamp int64             `json:"timestamp"` // epoch ms
}

// Store keeps the week log, newest entry first.
type Store struct {
	kv  storage.KeyValueStore
	log *logger.Logger
	now func() time.Time
}

// NewStore creates a log store.
func NewStore(kv storage.KeyValueStore, log *logger.Logger) *Store {
	return &Store{kv: kv, log: log.WithComponent("history"), now: time.Now}
}

// SaveSnapshot prepends a copy of plan to the log. The list is never
// deduplicated or trimmed.
func (s *Store) SaveSnapshot(ctx context.Context, startDate, endDate string, plan planner.PlanState) (Entry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		ID:        uuid.NewString(),
		StartDate: startDate,
		EndDate:   endDate,
		Plan:      plan.Clone(),
		Timestamp: s.now().UnixMilli(),
	}
	entries = append([]Entry{entry}, entries...)

	if err := s.persist(ctx, entries); err != nil {
		return Entry{}, err
	}
	s.log.Info("Saved week to log", "id", entry.ID, "start", startDate, "end", endDate)
	return entry, nil
}

// List returns all entries, newest first. A missing log is empty.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if _, err := storage.GetJSON(ctx, s.kv, storage.KeyLogs, &entries); err != nil {
		s.log.Warn("Failed to load week log", "key", storage.KeyLogs, "error", err)
		return nil, nil
	}
	return entries, nil
}

// Get returns the entry at index.
func (s *Store) Get(ctx context.Context, index int) (Entry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return Entry{}, err
	}
	if index < 0 || index >= len(entries) {
		return Entry{}, fmt.Errorf("%w: index %d of %d", ErrNotFound, index, len(entries))
	}
	return entries[index], nil
}

// Delete removes the entry at index.
func (s *Store) Delete(ctx context.Context, index int) error {
	entries, err := s.List(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(entries) {
		return fmt.Errorf("%w: index %d of %d", ErrNotFound, index, len(entries))
	}
	kept := make([]Entry, 0, len(entries)-1)
	kept = append(kept, entries[:index]...)
	kept = append(kept, entries[index+1:]...)
	return s.persist(ctx, kept)
}

func (s *Store) persist(ctx context.Context, entries []Entry) error {
	if err := storage.Persist(ctx, s.kv, storage.KeyLogs, entries); err != nil {
		s.log.Error("Failed to save week log", "key", storage.KeyLogs, "error", err)
		return err
	}
	return nil
}

// WeekRange is a Monday to Sunday span with display labels.
type WeekRange struct {
	Start      time.Time
	End        time.Time
	StartLabel string
	EndLabel   string
}

// NextMondayRange returns the week starting on the Monday after ref. On a
// Monday that is a full week ahead, never ref itself.
func NextMondayRange(ref time.Time) WeekRange {
	start := shared.NextMonday(ref)
	end := start.AddDate(0, 0, 6)
	return WeekRange{
		Start:      start,
		End:        end,
		StartLabel: FormatDate(start),
		EndLabel:   FormatDate(end),
	}
}

// FormatDate renders the log label of a date, e.g. "Mon, Jan 12".
func FormatDate(t time.Time) string {
	return t.Format("Mon, Jan 2")
}
