package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Capsula/internal/domain"
)

// Лимиты выборки.
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// pgUniqueViolation — код ошибки Postgres при нарушении уникальности.
const pgUniqueViolation = "23505"

// EventRepo — журнал событий worker'ов.
type EventRepo struct {
	pool *pgxpool.Pool
}

// NewEventRepo создаёт новый EventRepo.
func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// EventFilter — параметры выборки событий.
type EventFilter struct {
	Account string
	Kind    domain.EventKind
	Limit   int
	Offset  int
}

// normalize ограничивает Limit и Offset.
func (f EventFilter) normalize() EventFilter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	f.Limit = min(f.Limit, maxListLimit)
	f.Offset = max(f.Offset, 0)
	return f
}

// Record записывает событие. Реализует orchestrator.Recorder.
func (r *EventRepo) Record(ctx context.Context, ev domain.Event) error {
	query := `
		INSERT INTO worker_events (id, account, kind, message, failed_logins, next_start, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		ev.ID,
		ev.Account,
		string(ev.Kind),
		nullString(ev.Message),
		ev.FailedLogins,
		ev.NextStart,
		ev.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: event %s", ErrAlreadyExists, ev.ID)
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// eventsWhere — фильтр по account ($1) и kind ($2); NULL отключает условие.
const eventsWhere = `
		WHERE ($1::text IS NULL OR account = $1)
		  AND ($2::text IS NULL OR kind = $2)
`

// List возвращает события, новые первыми.
func (r *EventRepo) List(ctx context.Context, filter EventFilter) ([]domain.Event, error) {
	filter = filter.normalize()

	query := `
		SELECT id, account, kind, message, failed_logins, next_start, created_at
		FROM worker_events` + eventsWhere + `
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.Account),
		nullString(string(filter.Kind)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events, err := pgx.CollectRows(rows, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return events, nil
}

// Count возвращает число событий под фильтром без учёта Limit и Offset.
func (r *EventRepo) Count(ctx context.Context, filter EventFilter) (int, error) {
	query := `SELECT count(*) FROM worker_events` + eventsWhere

	var total int
	err := r.pool.QueryRow(ctx, query,
		nullString(filter.Account),
		nullString(string(filter.Kind)),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return total, nil
}

// scanEvent сканирует одну строку worker_events.
func scanEvent(row pgx.CollectableRow) (domain.Event, error) {
	var (
		ev      domain.Event
		kind    string
		message *string
	)
	err := row.Scan(
		&ev.ID,
		&ev.Account,
		&kind,
		&message,
		&ev.FailedLogins,
		&ev.NextStart,
		&ev.CreatedAt,
	)
	if err != nil {
		return domain.Event{}, err
	}

	ev.Kind = domain.EventKind(kind)
	if message != nil {
		ev.Message = *message
	}
	return ev, nil
}

// nullString возвращает nil для пустой строки.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
