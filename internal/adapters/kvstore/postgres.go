package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
)

var _ domain.KeyValueStore = (*PostgresStore)(nil)

func NewPostgresConnection(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// PostgresStore persists key-value pairs in a single kv_entries table.
// Each key holds one JSON document, mirroring the layout the engine
// uses on Redis.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		CREATE TABLE IF NOT EXISTS kv_entries (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("kvstore: migrate failed: %w", err)
	}

	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		SELECT value
		FROM kv_entries
		WHERE key = $1
	`

	var value string

	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", domain.ErrKeyNotFound
		}
		return "", fmt.Errorf("kvstore: get %q failed: %w", key, err)
	}

	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	insert := `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
	`

	_, err := s.db.ExecContext(ctx, insert, key, value)
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		update := `
			UPDATE kv_entries
			SET value = $2, updated_at = NOW()
			WHERE key = $1
		`
		if _, err := s.db.ExecContext(ctx, update, key, value); err != nil {
			return fmt.Errorf("kvstore: update %q failed: %w", key, err)
		}
		return nil
	}

	return fmt.Errorf("kvstore: set %q failed: %w", key, err)
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		DELETE FROM kv_entries
		WHERE key = $1
	`

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("kvstore: delete %q failed: %w", key, err)
	}

	return nil
}
