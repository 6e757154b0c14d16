package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetValue returns the value stored under key, or ErrNotFound.
func (s *SQLiteStore) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("getting %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting %s: %w", key, err)
	}
	return value, nil
}

// SetValue stores value under key, replacing any previous value.
func (s *SQLiteStore) SetValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// DeleteValue removes key. Deleting a missing key is not an error.
func (s *SQLiteStore) DeleteValue(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}
