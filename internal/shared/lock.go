package shared

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// LockObserver получает метрики RefreshLock. Реализуется telemetry.Metrics.
type LockObserver interface {
	ObserveLockWait(d time.Duration)
	SetLockHeld(held bool)
}

// RefreshLock — мьютекс на процесс с отменой ожидания через context.
//
// Реентерабельности нет: повторный Acquire из того же worker'а
// без Release заблокируется. Операция под локом дополнительно
// ограничена по частоте (token bucket, общий для всех держателей).
type RefreshLock struct {
	sem     chan struct{}
	limiter *rate.Limiter
	obs     LockObserver

	holders    atomic.Int32
	maxHolders atomic.Int32
}

// LockConfig — конфигурация RefreshLock.
type LockConfig struct {
	// Rate — сколько операций под локом в секунду разрешено (0 — без ограничения).
	Rate float64

	// Burst — размер bucket (default: 1).
	Burst int

	// Observer — получатель метрик (опционально).
	Observer LockObserver
}

// NewRefreshLock создаёт RefreshLock.
func NewRefreshLock(cfg LockConfig) *RefreshLock {
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &RefreshLock{
		sem:     make(chan struct{}, 1),
		limiter: rate.NewLimiter(limit, burst),
		obs:     cfg.Observer,
	}
}

// Acquire захватывает лок или возвращает ctx.Err().
func (l *RefreshLock) Acquire(ctx context.Context) error {
	start := time.Now()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	n := l.holders.Add(1)
	for {
		prev := l.maxHolders.Load()
		if n <= prev || l.maxHolders.CompareAndSwap(prev, n) {
			break
		}
	}

	if l.obs != nil {
		l.obs.ObserveLockWait(time.Since(start))
		l.obs.SetLockHeld(true)
	}
	return nil
}

// Release освобождает лок. Release без Acquire — ошибка программиста (panic).
func (l *RefreshLock) Release() {
	l.holders.Add(-1)
	if l.obs != nil {
		l.obs.SetLockHeld(false)
	}
	select {
	case <-l.sem:
	default:
		panic("shared: release of unlocked RefreshLock")
	}
}

// Do ждёт токен rate limiter'а, захватывает лок, выполняет fn и
// освобождает лок на любом выходе: nil, ошибка или panic.
func (l *RefreshLock) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()

	return fn(ctx)
}

// Holders возвращает текущее количество держателей (0 или 1).
func (l *RefreshLock) Holders() int {
	return int(l.holders.Load())
}

// MaxHolders возвращает максимум одновременных держателей за всё время.
func (l *RefreshLock) MaxHolders() int {
	return int(l.maxHolders.Load())
}
