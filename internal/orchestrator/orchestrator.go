package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Capsula/internal/domain"
	"github.com/shaiso/Capsula/internal/mq"
	"github.com/shaiso/Capsula/internal/restart"
	"github.com/shaiso/Capsula/internal/stats"
	"github.com/shaiso/Capsula/internal/telemetry"
	"github.com/shaiso/Capsula/internal/worker"
)

// Default configuration values.
const (
	defaultTickInterval    = 5 * time.Second
	defaultRecordTimeout   = 2 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// restartTimeLayout — формат времени рестарта в статусе.
const restartTimeLayout = "15:04:05"

// Spawner запускает worker для аккаунта. Реализуется worker.Factory.
type Spawner interface {
	Spawn(ctx context.Context, account domain.Account) *worker.Handle
}

// Recorder получает события жизненного цикла.
// Реализуется repo.EventRepo и mq.Publisher.
type Recorder interface {
	Record(ctx context.Context, ev domain.Event) error
}

// Orchestrator управляет worker'ами аккаунтов.
type Orchestrator struct {
	accounts []domain.Account

	// Зависимости
	spawner   Spawner
	status    *stats.Table
	restarts  *restart.Policy
	recorders []Recorder
	metrics   *telemetry.Metrics

	// MQ (опционально)
	conn            *mq.Connection
	controlConsumer *mq.Consumer

	// Handles — worker'ы, которые сейчас отслеживаются (account → handle)
	handles map[string]*worker.Handle

	// Orphans — handles выключенных аккаунтов, чей worker ещё не вышел сам.
	// Пока orphan жив, второй worker для аккаунта не запускается.
	orphans map[string]*worker.Handle
	mu      sync.RWMutex

	// Configuration
	tickInterval    time.Duration
	recordTimeout   time.Duration
	shutdownTimeout time.Duration
	now             func() time.Time

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Accounts — все аккаунты из конфигурации. Enabled задаёт начальный флаг.
	Accounts []domain.Account

	Spawner  Spawner
	Status   *stats.Table
	Restarts *restart.Policy

	// Recorders — получатели событий (опционально).
	Recorders []Recorder

	// Metrics — Prometheus метрики (опционально).
	Metrics *telemetry.Metrics

	// Conn — соединение с RabbitMQ для control-команд (опционально).
	Conn *mq.Connection

	TickInterval    time.Duration // период тика (default: 5s)
	RecordTimeout   time.Duration // таймаут записи одного события (default: 2s)
	ShutdownTimeout time.Duration // сколько ждать worker'ов при Stop (default: 10s)

	// Now — источник времени, для тестов (default: time.Now).
	Now func() time.Time

	// Logger
	Logger *slog.Logger
}

// New создаёт Orchestrator и регистрирует аккаунты в таблице статусов.
func New(cfg Config) *Orchestrator {
	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}

	recordTimeout := cfg.RecordTimeout
	if recordTimeout <= 0 {
		recordTimeout = defaultRecordTimeout
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	status := cfg.Status
	if status == nil {
		status = stats.NewTable()
	}

	restarts := cfg.Restarts
	if restarts == nil {
		restarts = restart.NewPolicy(restart.DefaultBackoff())
	}

	accounts := make([]domain.Account, len(cfg.Accounts))
	copy(accounts, cfg.Accounts)
	for _, acct := range accounts {
		status.InitNewAccount(acct)
	}

	return &Orchestrator{
		accounts:        accounts,
		spawner:         cfg.Spawner,
		status:          status,
		restarts:        restarts,
		recorders:       cfg.Recorders,
		metrics:         cfg.Metrics,
		conn:            cfg.Conn,
		handles:         make(map[string]*worker.Handle),
		orphans:         make(map[string]*worker.Handle),
		tickInterval:    tickInterval,
		recordTimeout:   recordTimeout,
		shutdownTimeout: shutdownTimeout,
		now:             now,
		logger:          logger,
	}
}

// Start запускает Orchestrator.
//
// Запускает:
//   - цикл тиков (первый тик сразу)
//   - consumer для control.accounts, если передан Conn
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.IsStopped() {
		return ErrOrchestratorStopped
	}

	ctx, cancel := context.WithCancel(ctx)
	o.cancelFunc = cancel

	o.logger.Info("starting orchestrator",
		"accounts", len(o.accounts),
		"tick_interval", o.tickInterval,
	)

	if o.conn != nil {
		o.controlConsumer = mq.NewConsumer(o.conn, o.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueControlAccounts),
			Handler:  o.HandleControl,
			Prefetch: 1,
		})

		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			if err := o.controlConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				o.logger.Error("control consumer error", "error", err)
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.tickLoop(ctx)
	}()

	o.logger.Info("orchestrator started")
	return nil
}

// Stop останавливает цикл тиков и ждёт завершения worker'ов.
func (o *Orchestrator) Stop() {
	o.stoppedMu.Lock()
	o.stopped = true
	o.stoppedMu.Unlock()

	o.logger.Info("stopping orchestrator...")

	if o.cancelFunc != nil {
		o.cancelFunc()
	}
	if o.controlConsumer != nil {
		o.controlConsumer.Stop()
	}

	o.wg.Wait()

	// Worker'ы получили отмену через ctx — ждём, но не бесконечно
	ctx, cancel := context.WithTimeout(context.Background(), o.shutdownTimeout)
	defer cancel()

	var waiting int
	for _, h := range o.snapshotHandles() {
		if err := h.Wait(ctx); errors.Is(err, context.DeadlineExceeded) {
			waiting++
		}
	}

	o.logger.Info("orchestrator stopped",
		"live_workers", o.LiveCount(),
		"not_finished", waiting,
	)
}

// IsStopped проверяет, остановлен ли Orchestrator.
func (o *Orchestrator) IsStopped() bool {
	o.stoppedMu.RLock()
	defer o.stoppedMu.RUnlock()
	return o.stopped
}

// tickLoop — основной цикл.
func (o *Orchestrator) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(o.tickInterval)
	defer ticker.Stop()

	// Первый тик сразу при старте
	o.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.Tick(ctx)
		}
	}
}

// Tick выполняет один проход по аккаунтам.
//
//  1. Запуск: нет handle, аккаунт включён → живой orphan забираем обратно,
//     иначе при CanRestart → Spawn
//  2. Выключенный аккаунт с handle → handle становится orphan (worker не убиваем)
//  3. Завершившиеся handles собираются, затем по каждому назначается рестарт
//
// Ошибки одного аккаунта не блокируют обработку остальных.
func (o *Orchestrator) Tick(ctx context.Context) {
	now := o.now()

	for _, acct := range o.Accounts() {
		o.guard(acct.Name, "start", func() {
			o.startOrDrop(ctx, acct, now)
		})
	}

	// Сначала собираем, потом применяем — не меняем map во время обхода
	for _, h := range o.finishedHandles() {
		o.guard(h.Account(), "reap", func() {
			o.reap(ctx, h, now)
		})
	}
	o.pruneOrphans()

	o.metrics.SetWorkersLive(o.LiveCount())
}

// startOrDrop обрабатывает шаги 1 и 2 для одного аккаунта.
func (o *Orchestrator) startOrDrop(ctx context.Context, acct domain.Account, now time.Time) {
	name := acct.Name
	h := o.getHandle(name)
	enabled := o.status.Enabled(name)

	switch {
	case h == nil && enabled:
		if orphan := o.adoptOrphan(name); orphan != nil {
			o.logger.Info("account re-enabled before its worker exited, worker adopted",
				"account", name,
				"started_at", orphan.StartedAt(),
			)
			o.record(ctx, domain.NewEvent(name, domain.EventWorkerAdopted, now))
			return
		}
		if o.restarts.CanRestart(name, now) {
			o.spawn(ctx, acct, now)
		}

	case h != nil && !enabled:
		if !o.dropHandle(name, h) {
			return
		}
		o.logger.Info("account disabled, worker dropped",
			"account", name,
			"alive", h.Alive(),
		)
		o.record(ctx, domain.NewEvent(name, domain.EventWorkerDropped, now))
	}
}

// spawn запускает worker и запоминает handle.
func (o *Orchestrator) spawn(ctx context.Context, acct domain.Account, now time.Time) {
	h := o.spawner.Spawn(ctx, acct)
	o.setHandle(acct.Name, h)
	o.metrics.WorkerStarted(acct.Name)

	o.logger.Info("worker started",
		"account", acct.Name,
		"restart_failures", o.restarts.Failures(acct.Name),
	)
	o.record(ctx, domain.NewEvent(acct.Name, domain.EventWorkerStarted, now))
}

// reap обрабатывает завершившийся worker: назначает рестарт и пишет статус.
func (o *Orchestrator) reap(ctx context.Context, h *worker.Handle, now time.Time) {
	name := h.Account()
	if !o.removeHandle(name, h) {
		return
	}

	next := o.restarts.SetRestartDelay(name, now)
	failed := o.status.GetFailedLogins(name)
	o.status.UpdateStatus(name, RestartStatus(next, failed))

	delay := next.Sub(now)
	o.metrics.WorkerTerminated(name, delay)

	o.logger.Warn("worker terminated, restart scheduled",
		"account", name,
		"error", h.Err(),
		"failed_logins", failed,
		"restart_at", next.Format(time.RFC3339),
		"delay", delay,
	)

	ev := domain.NewEvent(name, domain.EventWorkerTerminated, now)
	ev.FailedLogins = failed
	ev.NextStart = &next
	if err := h.Err(); err != nil {
		ev.Message = err.Error()
	}
	o.record(ctx, ev)
}

// RestartStatus формирует текст статуса для завершившегося worker'а.
func RestartStatus(next time.Time, failedLogins int) string {
	return fmt.Sprintf("ERROR - restart at %s, failed logins: %d", next.Format(restartTimeLayout), failedLogins)
}

// SetEnabled включает или выключает аккаунт.
// Worker выключенного аккаунта выходит сам; оркестратор забывает его handle на ближайшем тике.
func (o *Orchestrator) SetEnabled(ctx context.Context, account string, enabled bool) error {
	prev, err := o.status.SetEnabled(account, enabled)
	if err != nil {
		if errors.Is(err, stats.ErrUnknownAccount) {
			return fmt.Errorf("%w: %s", ErrUnknownAccount, account)
		}
		return err
	}

	if prev == enabled {
		return nil
	}

	kind := domain.EventAccountDisabled
	if enabled {
		kind = domain.EventAccountEnabled
		// Снимаем "Disabled", дальше статус ведёт worker или reap
		o.status.UpdateStatus(account, domain.StatusInit)
	}

	o.logger.Info("account flag changed", "account", account, "enabled", enabled)
	o.record(ctx, domain.NewEvent(account, kind, o.now()))
	return nil
}

// guard изолирует шаг тика одного аккаунта: panic логируется и считается.
func (o *Orchestrator) guard(account, step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			o.metrics.TickPanic()
			o.logger.Error("tick step panicked",
				"account", account,
				"step", step,
				"panic", r,
			)
		}
	}()
	fn()
}

// record отправляет событие всем получателям. Ошибки только логируются.
func (o *Orchestrator) record(ctx context.Context, ev domain.Event) {
	if len(o.recorders) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.recordTimeout)
	defer cancel()

	for _, r := range o.recorders {
		if err := r.Record(ctx, ev); err != nil {
			o.logger.Warn("failed to record event",
				"account", ev.Account,
				"kind", ev.Kind,
				"error", err,
			)
		}
	}
}
