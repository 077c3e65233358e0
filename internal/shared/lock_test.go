package shared

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeObserver struct {
	mu    sync.Mutex
	waits int
	held  int
}

func (o *fakeObserver) ObserveLockWait(time.Duration) {
	o.mu.Lock()
	o.waits++
	o.mu.Unlock()
}

func (o *fakeObserver) SetLockHeld(held bool) {
	o.mu.Lock()
	if held {
		o.held++
	} else {
		o.held--
	}
	o.mu.Unlock()
}

// --- RefreshLock Tests ---

func TestRefreshLock_NeverTwoHolders(t *testing.T) {
	lock := NewRefreshLock(LockConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				err := lock.Do(context.Background(), func(context.Context) error {
					if n := lock.Holders(); n != 1 {
						t.Errorf("expected 1 holder inside critical section, got %d", n)
					}
					return nil
				})
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if got := lock.MaxHolders(); got != 1 {
		t.Errorf("max concurrent holders should be 1, got %d", got)
	}
	if got := lock.Holders(); got != 0 {
		t.Errorf("lock should be free, holders=%d", got)
	}
}

func TestRefreshLock_ReleasedOnError(t *testing.T) {
	lock := NewRefreshLock(LockConfig{})
	boom := errors.New("boom")

	err := lock.Do(context.Background(), func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := lock.Acquire(ctx); err != nil {
		t.Fatalf("lock should be free after error: %v", err)
	}
	lock.Release()
}

func TestRefreshLock_ReleasedOnPanic(t *testing.T) {
	lock := NewRefreshLock(LockConfig{})

	func() {
		defer func() { _ = recover() }()
		_ = lock.Do(context.Background(), func(context.Context) error { panic("boom") })
	}()

	if got := lock.Holders(); got != 0 {
		t.Errorf("lock should be free after panic, holders=%d", got)
	}
}

func TestRefreshLock_AcquireCancelled(t *testing.T) {
	lock := NewRefreshLock(LockConfig{})
	if err := lock.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := lock.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestRefreshLock_RateLimited(t *testing.T) {
	// 20 операций в секунду, burst 1 → между операциями не меньше 50ms
	lock := NewRefreshLock(LockConfig{Rate: 20, Burst: 1})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := lock.Do(context.Background(), func(context.Context) error { return nil }); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("rate limit not applied, elapsed %v", elapsed)
	}
}

func TestRefreshLock_Observer(t *testing.T) {
	obs := &fakeObserver{}
	lock := NewRefreshLock(LockConfig{Observer: obs})

	_ = lock.Do(context.Background(), func(context.Context) error { return nil })

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.waits != 1 {
		t.Errorf("expected 1 wait observation, got %d", obs.waits)
	}
	if obs.held != 0 {
		t.Errorf("held gauge should return to 0, got %d", obs.held)
	}
}

func TestRefreshLock_ReleaseUnlockedPanics(t *testing.T) {
	lock := NewRefreshLock(LockConfig{})
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	lock.Release()
}
