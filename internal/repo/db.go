package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Параметры пула.
const (
	maxConns          = 5
	healthCheckPeriod = 30 * time.Second
	pingTimeout       = 5 * time.Second
)

// ErrNoDSN — строка подключения не задана.
var ErrNoDSN = errors.New("database url is empty")

// NewPool создаёт пул соединений и проверяет доступность БД.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.HealthCheckPeriod = healthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// schema — журнал событий worker'ов. Только запись и чтение для наблюдателей.
const schema = `
CREATE TABLE IF NOT EXISTS worker_events (
	id            UUID PRIMARY KEY,
	account       TEXT        NOT NULL,
	kind          TEXT        NOT NULL,
	message       TEXT,
	failed_logins INTEGER     NOT NULL DEFAULT 0,
	next_start    TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS worker_events_account_created_idx
	ON worker_events (account, created_at DESC);
`

// EnsureSchema создаёт таблицы, если их нет. Идемпотентна.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
