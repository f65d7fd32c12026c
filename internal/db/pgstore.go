package db

import (
	"context"
	"database/sql"
	"errors"
)

type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open, migrated database.
func NewPGStore(database *sql.DB) *PGStore {
	return &PGStore{db: database}
}

func (s *PGStore) Get(ctx context.Context, chatID int64, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM credentials WHERE chat_id = $1 AND key = $2`, chatID, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *PGStore) Put(ctx context.Context, chatID int64, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (chat_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (chat_id, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()
	`, chatID, key, value)
	return err
}

func (s *PGStore) Delete(ctx context.Context, chatID int64, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE chat_id = $1 AND key = $2`, chatID, key)
	return err
}

func (s *PGStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *PGStore) Close() error { return s.db.Close() }
