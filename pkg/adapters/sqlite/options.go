package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aretw0/fullform/pkg/domain"
)

// OptionsStore implements ports.OptionsStore on SQLite.
type OptionsStore struct {
	db *sql.DB
}

func (s *OptionsStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM display_options WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOptionsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get options: %w", err)
	}
	return value, nil
}

func (s *OptionsStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO display_options (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("sqlite: set options: %w", err)
	}
	return nil
}

func (s *OptionsStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM display_options WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: delete options: %w", err)
	}
	return nil
}
