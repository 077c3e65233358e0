package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shaiso/Capsula/internal/domain"
	"github.com/shaiso/Capsula/internal/shared"
)

// Default configuration values.
const (
	defaultInterval      = 60 * time.Second
	defaultRetryDelay    = 5 * time.Second
	defaultMaxRetryDelay = 2 * time.Minute
	defaultStableAfter   = 5 * time.Minute
)

// Worker выполняет работу одного аккаунта.
type Worker struct {
	account domain.Account

	// Зависимости
	client   Client
	status   StatusTable
	restarts RestartResetter
	cache    *shared.Cache[domain.LiveData]
	lock     *shared.RefreshLock

	// Configuration
	interval      time.Duration
	dataWait      time.Duration
	retryDelay    time.Duration
	maxRetryDelay time.Duration
	stableAfter   time.Duration

	logger *slog.Logger
}

// Config — конфигурация Worker. Общая для всех аккаунтов.
type Config struct {
	// Client — внешний сервис.
	Client Client

	// Status — таблица статусов.
	Status StatusTable

	// Restarts — сброс RestartRecord после стабильной работы (опционально).
	Restarts RestartResetter

	// Общие ресурсы
	Cache *shared.Cache[domain.LiveData]
	Lock  *shared.RefreshLock

	Interval      time.Duration // пауза между циклами (default: 60s)
	DataWait      time.Duration // сколько ждать общие данные за один цикл (default: Interval)
	RetryDelay    time.Duration // первая задержка retry (default: 5s)
	MaxRetryDelay time.Duration // потолок задержки retry (default: 2m)
	StableAfter   time.Duration // через сколько стабильной работы сбросить backoff (default: 5m)

	// Logger
	Logger *slog.Logger
}

// New создаёт Worker для аккаунта.
func New(cfg Config, account domain.Account) *Worker {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	dataWait := cfg.DataWait
	if dataWait <= 0 {
		dataWait = interval
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	maxRetryDelay := cfg.MaxRetryDelay
	if maxRetryDelay < retryDelay {
		maxRetryDelay = max(defaultMaxRetryDelay, retryDelay)
	}

	stableAfter := cfg.StableAfter
	if stableAfter <= 0 {
		stableAfter = defaultStableAfter
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		account:       account,
		client:        cfg.Client,
		status:        cfg.Status,
		restarts:      cfg.Restarts,
		cache:         cfg.Cache,
		lock:          cfg.Lock,
		interval:      interval,
		dataWait:      dataWait,
		retryDelay:    retryDelay,
		maxRetryDelay: maxRetryDelay,
		stableAfter:   stableAfter,
		logger:        logger.With("account", account.ID()),
	}
}

// Start запускает Run в отдельной горутине.
func (w *Worker) Start(ctx context.Context) *Handle {
	return Go(w.account.ID(), func() error { return w.Run(ctx) })
}

// Run — основной цикл worker'а. Блокируется до завершения.
//
// Возвращает:
//   - nil — аккаунт выключили, worker вышел сам
//   - ctx.Err() — процесс останавливается
//   - unrecoverable ошибку — аккаунт нужно рестартовать с задержкой
func (w *Worker) Run(ctx context.Context) error {
	name := w.account.ID()
	w.logger.Info("worker started")

	if !w.status.Enabled(name) {
		w.logger.Info("account disabled, worker exiting")
		return nil
	}

	session, err := w.login(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return w.terminate(err)
	}

	// healthySince — начало текущей серии успешных циклов; любой сбой её обрывает
	healthySince := time.Now()
	stable := false
	failures := 0

	for {
		if !w.status.Enabled(name) {
			w.logger.Info("account disabled, worker exiting")
			return nil
		}

		err := w.cycle(ctx, session)

		var delay time.Duration
		switch {
		case err == nil:
			failures = 0
			delay = w.interval

			if healthySince.IsZero() {
				healthySince = time.Now()
			}
			if !stable && time.Since(healthySince) >= w.stableAfter {
				stable = true
				if w.restarts != nil {
					w.restarts.Reset(name)
				}
				w.logger.Debug("worker is stable, restart backoff reset")
			}

		case errors.Is(err, errNoData):
			// cycle уже подождал dataWait — сразу перепроверяем enabled
			continue

		case ctx.Err() != nil:
			return ctx.Err()

		case IsUnrecoverable(err):
			return w.terminate(err)

		default:
			failures++
			healthySince = time.Time{}
			delay = calculateBackoff(failures, w.retryDelay, w.maxRetryDelay)
			w.status.UpdateStatus(name, fmt.Sprintf("Connection problem, retrying in %s", delay.Round(time.Second)))
			w.logger.Warn("cycle failed, retrying",
				"attempt", failures,
				"delay", delay,
				"error", err,
			)
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// login входит в сервис. Recoverable ошибки повторяются без ограничения
// количества попыток, но с ограниченной задержкой.
func (w *Worker) login(ctx context.Context) (Session, error) {
	name := w.account.ID()
	w.status.UpdateStatus(name, domain.StatusLoggingIn)

	for attempt := 1; ; attempt++ {
		session, err := w.client.Login(ctx, w.account)
		if err == nil {
			w.status.ResetFailedLogins(name)
			w.logger.Info("logged in", "attempt", attempt)
			return session, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if IsUnrecoverable(err) {
			return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
		}

		delay := calculateBackoff(attempt, w.retryDelay, w.maxRetryDelay)
		w.logger.Warn("login attempt failed, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// cycle выполняет одну итерацию работы аккаунта.
func (w *Worker) cycle(ctx context.Context, session Session) error {
	name := w.account.ID()

	waitCtx, cancel := context.WithTimeout(ctx, w.dataWait)
	snap, err := w.cache.Wait(waitCtx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.status.UpdateStatus(name, domain.StatusWaitingData)
		return errNoData
	}

	// Критическая секция — только обновление сессии
	if err := w.lock.Do(ctx, session.Refresh); err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}

	matches := snap.Value.Matches
	watched, err := session.Watch(ctx, matches)
	if err != nil {
		return fmt.Errorf("watch matches: %w", err)
	}

	w.status.UpdateStatus(name, liveStatus(matches, watched))
	w.logger.Debug("cycle completed",
		"matches", snap.Value.MatchIDs(),
		"watched", watched,
		"data_version", snap.Version,
	)
	return nil
}

// terminate фиксирует unrecoverable ошибку в таблице статусов.
// Сырой текст ошибки в статус не попадает, только в лог.
func (w *Worker) terminate(err error) error {
	name := w.account.ID()
	failed := w.status.AddFailedLogin(name)

	text := domain.StatusUnrecoverable
	if errors.Is(err, ErrLoginFailed) {
		text = domain.StatusLoginFailed
	}
	w.status.UpdateStatus(name, text)

	w.logger.Error("worker terminated",
		"failed_logins", failed,
		"error", err,
	)
	return err
}

// liveStatus формирует текст статуса по списку трансляций.
func liveStatus(matches []domain.Match, watched int) string {
	if len(matches) == 0 {
		return domain.StatusNoMatches
	}

	leagues := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if m.League == "" || seen[m.League] {
			continue
		}
		seen[m.League] = true
		leagues = append(leagues, m.League)
	}

	return fmt.Sprintf("Live: %d/%d %s", watched, len(matches), strings.Join(leagues, ", "))
}

// calculateBackoff вычисляет задержку перед retry.
// delay = initialDelay * 2^(attempt-1), capped at maxDelay
func calculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	delay := initialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > maxDelay {
			return maxDelay
		}
	}
	return min(delay, maxDelay)
}

// sleep ждёт d с учётом context.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
