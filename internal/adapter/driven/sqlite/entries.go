package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// getEntry reads the raw value stored under key. ok is false when the key is absent.
func getEntry(ctx context.Context, q queryer, key string) (value string, ok bool, err error) {
	const query = `SELECT value FROM entries WHERE key = ?`
	err = q.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get entry %q: %w", key, err)
	}
	return value, true, nil
}

// setEntry stores or replaces the raw value under key.
func setEntry(ctx context.Context, e execer, key, value string) error {
	const query = `
		INSERT INTO entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := e.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set entry %q: %w", key, err)
	}
	return nil
}

// deleteEntry removes key. Removing an absent key is a no-op.
func deleteEntry(ctx context.Context, e execer, key string) error {
	const query = `DELETE FROM entries WHERE key = ?`
	if _, err := e.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete entry %q: %w", key, err)
	}
	return nil
}
