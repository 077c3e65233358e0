package refresher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Capsula/internal/domain"
	"github.com/shaiso/Capsula/internal/shared"
)

// Default configuration values.
const (
	DefaultSchedule = "@every 1m"
	defaultTimeout  = 30 * time.Second
)

// Source — откуда берутся live-данные.
//
// Fetch должен вернуть ошибку на любом неполном ответе:
// частичные данные не публикуются.
type Source interface {
	Fetch(ctx context.Context) (domain.LiveData, error)
}

// Observer получает метрики обновлений. Реализуется telemetry.Metrics.
type Observer interface {
	RefreshSucceeded(version uint64)
	RefreshFailed()
}

// Refresher обновляет shared.Cache по расписанию.
type Refresher struct {
	source   Source
	cache    *shared.Cache[domain.LiveData]
	schedule cron.Schedule
	timeout  time.Duration
	observer Observer
	logger   *slog.Logger

	// now — для тестов
	now func() time.Time
}

// Config — конфигурация Refresher.
type Config struct {
	Source Source
	Cache  *shared.Cache[domain.LiveData]

	Schedule string        // cron или @every (default: "@every 1m")
	Timeout  time.Duration // таймаут одного Fetch (default: 30s)

	// Observer — метрики (опционально).
	Observer Observer

	// Logger
	Logger *slog.Logger
}

// New создаёт Refresher. Ошибка — только на невалидной конфигурации.
func New(cfg Config) (*Refresher, error) {
	if cfg.Source == nil {
		return nil, ErrNoSource
	}
	if cfg.Cache == nil {
		return nil, ErrNoCache
	}

	expr := cfg.Schedule
	if expr == "" {
		expr = DefaultSchedule
	}
	sched, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Refresher{
		source:   cfg.Source,
		cache:    cfg.Cache,
		schedule: sched,
		timeout:  timeout,
		observer: cfg.Observer,
		logger:   logger.With("component", "refresher"),
		now:      time.Now,
	}, nil
}

// Run обновляет данные сразу и затем по расписанию, пока ctx не отменён.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher started")

	for {
		if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("refresh failed, keeping previous data",
				"version", r.cache.Version(),
				"error", err,
			)
		}

		delay := nextDelay(r.schedule, r.now())
		if delay <= 0 {
			r.logger.Warn("refresh schedule exhausted")
			<-ctx.Done()
			return ctx.Err()
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("refresher stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Refresh выполняет одно обновление. Кэш меняется только при успехе.
func (r *Refresher) Refresh(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	data, err := r.source.Fetch(fetchCtx)
	if err != nil {
		if r.observer != nil {
			r.observer.RefreshFailed()
		}
		return fmt.Errorf("fetch live data: %w", err)
	}

	if data.FetchedAt.IsZero() {
		data.FetchedAt = r.now()
	}

	snap := r.cache.Publish(data)
	if r.observer != nil {
		r.observer.RefreshSucceeded(snap.Version)
	}

	r.logger.Debug("live data refreshed",
		"version", snap.Version,
		"matches", len(data.Matches),
	)
	return nil
}
