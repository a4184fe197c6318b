package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"weekly-meal-planner/internal/storage/store_db"
)

// SQLiteStore keeps records in the local_store table.
type SQLiteStore struct {
	queries *store_db.Queries
	db      *sql.DB
}

// NewSQLiteStore creates a store on an already migrated database.
func NewSQLiteStore(d *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		queries: store_db.New(d),
		db:      d,
	}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	row, err := s.queries.GetValue(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return []byte(row.Value), nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	return s.queries.UpsertValue(ctx, store_db.UpsertValueParams{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now().UTC(),
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	return s.queries.DeleteValue(ctx, key)
}

// Keys lists every stored key in order.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	return s.queries.ListKeys(ctx)
}
