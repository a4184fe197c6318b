package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys of the persisted records. Each record is an independent JSON value.
const (
	KeyPlan         = "weeklyMealPlan_v1"
	KeyCustomDishes = "customDishes_v1"
	KeyRecipes      = "dishRecipes_v1"
	KeyLogs         = "mealPlanLogs_v1"
	KeyTemplate     = "saved_templates_v2"
	KeyAppVersion   = "app_version"
)

var (
	// ErrNotFound is returned by Get when a key has never been written.
	ErrNotFound = errors.New("key not found")
	// ErrPersist marks a failed write. In-memory state stays authoritative when it is returned.
	ErrPersist = errors.New("persistence failure")
)

// KeyValueStore is the local namespaced store every record is written through.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes the record at key into v. It reports false, with no error,
// when the key does not exist.
func GetJSON(ctx context.Context, kv KeyValueStore, key string, v any) (bool, error) {
	data, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

// PutJSON encodes v and writes it at key.
func PutJSON(ctx context.Context, kv KeyValueStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Persist is PutJSON with the failure marked as ErrPersist.
func Persist(ctx context.Context, kv KeyValueStore, key string, v any) error {
	if err := PutJSON(ctx, kv, key, v); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
