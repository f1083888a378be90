package snapshot

import (
	"context"
	"database/sql"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// PostgresKV keeps snapshots in a single upsert-only table, for deployments
// where the data directory is not durable.
type PostgresKV struct {
	db *sql.DB
}

func NewPostgresKV(db *sql.DB) *PostgresKV {
	return &PostgresKV{db: db}
}

func (s *PostgresKV) Setup(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS snapshots (
				key        TEXT PRIMARY KEY,
				data       BYTEA NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`)
		return err
	})
}

func (s *PostgresKV) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresKV) Get(key string) ([]byte, bool, error) {
	var data []byte

	err := withTimeout(context.Background(), queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT data
			FROM snapshots
			WHERE key = $1
		`, key).Scan(&data)
	})

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *PostgresKV) Set(key string, value []byte) error {
	return withTimeout(context.Background(), queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO snapshots (key, data, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE
			SET data = EXCLUDED.data, updated_at = now()
		`, key, value)
		return err
	})
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
