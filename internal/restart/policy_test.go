package restart

import (
	"sync"
	"testing"
	"time"
)

func noJitter() Backoff {
	return Backoff{Min: 10 * time.Second, Max: 5 * time.Minute, Factor: 2}
}

// --- Backoff Tests ---

func TestBackoff_Base_Grows(t *testing.T) {
	b := noJitter()

	want := []time.Duration{
		10 * time.Second,
		20 * time.Second,
		40 * time.Second,
		80 * time.Second,
		160 * time.Second,
		5 * time.Minute, // потолок
		5 * time.Minute,
	}
	for i, w := range want {
		if got := b.Base(i + 1); got != w {
			t.Errorf("failures=%d: expected %v, got %v", i+1, w, got)
		}
	}
}

func TestBackoff_Base_ZeroFailuresIsMin(t *testing.T) {
	b := noJitter()
	if got := b.Base(0); got != 10*time.Second {
		t.Errorf("expected min delay, got %v", got)
	}
}

func TestBackoff_Base_HugeFailuresCapped(t *testing.T) {
	b := noJitter()
	if got := b.Base(10_000); got != 5*time.Minute {
		t.Errorf("expected max delay, got %v", got)
	}
}

func TestBackoff_Delay_JitterIsAdditive(t *testing.T) {
	b := Backoff{Min: 10 * time.Second, Max: time.Minute, Factor: 2, Jitter: 0.5}

	for _, r := range []float64{0, 0.25, 0.999} {
		b.rand = func() float64 { return r }
		got := b.Delay(1)
		if got < 10*time.Second {
			t.Errorf("rand=%v: delay %v below min", r, got)
		}
		if got >= 15*time.Second {
			t.Errorf("rand=%v: delay %v above base+jitter", r, got)
		}
	}
}

func TestBackoff_Normalize(t *testing.T) {
	b := Backoff{}.normalize()
	if b.Min != DefaultMinDelay {
		t.Errorf("expected default min, got %v", b.Min)
	}
	if b.Factor != DefaultFactor {
		t.Errorf("expected default factor, got %v", b.Factor)
	}
	if b.Max < b.Min {
		t.Error("max should not be below min")
	}
}

// --- Policy Tests ---

func TestPolicy_CanRestart_NoRecord(t *testing.T) {
	p := NewPolicy(noJitter())
	if !p.CanRestart("alice", time.Now()) {
		t.Error("account without record should be eligible")
	}
	if _, ok := p.GetNextStart("alice"); ok {
		t.Error("no next start expected")
	}
}

func TestPolicy_CanRestart_Boundary(t *testing.T) {
	p := NewPolicy(noJitter())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	next := p.SetRestartDelay("alice", t0)
	if !next.Equal(t0.Add(10 * time.Second)) {
		t.Fatalf("expected t0+10s, got %v", next)
	}

	if p.CanRestart("alice", next.Add(-time.Nanosecond)) {
		t.Error("should not restart before next eligible time")
	}
	if !p.CanRestart("alice", next) {
		t.Error("boundary is inclusive: should restart at exactly next eligible time")
	}
	if !p.CanRestart("alice", next.Add(time.Second)) {
		t.Error("should restart after next eligible time")
	}
}

func TestPolicy_SetRestartDelay_Monotonic(t *testing.T) {
	p := NewPolicy(noJitter())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	var prev time.Time
	now := t0
	for i := 0; i < 10; i++ {
		next := p.SetRestartDelay("alice", now)
		if next.Before(prev) {
			t.Fatalf("failure %d: next eligible decreased: %v < %v", i+1, next, prev)
		}
		prev = next
		// Следующее падение — сразу, даже раньше назначенного рестарта
		now = now.Add(time.Second)
	}

	if got := p.Failures("alice"); got != 10 {
		t.Errorf("expected 10 failures, got %d", got)
	}
}

func TestPolicy_SetRestartDelay_KeepsLaterSchedule(t *testing.T) {
	p := NewPolicy(Backoff{Min: time.Minute, Max: time.Minute, Factor: 2})
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	first := p.SetRestartDelay("alice", t0.Add(30*time.Second))
	// Падение, зафиксированное с более ранним now, не должно сдвинуть рестарт назад
	second := p.SetRestartDelay("alice", t0)

	if second.Before(first) {
		t.Errorf("next eligible moved back: %v < %v", second, first)
	}
}

func TestPolicy_Reset(t *testing.T) {
	p := NewPolicy(noJitter())
	t0 := time.Now()

	p.SetRestartDelay("alice", t0)
	p.SetRestartDelay("alice", t0)
	p.Reset("alice")

	if !p.CanRestart("alice", t0) {
		t.Error("reset account should be eligible")
	}
	next := p.SetRestartDelay("alice", t0)
	if !next.Equal(t0.Add(10 * time.Second)) {
		t.Errorf("after reset delay should start from min, got %v", next.Sub(t0))
	}
}

func TestPolicy_IndependentAccounts(t *testing.T) {
	p := NewPolicy(noJitter())
	t0 := time.Now()

	p.SetRestartDelay("alice", t0)
	if !p.CanRestart("bob", t0) {
		t.Error("bob must not be affected by alice failures")
	}
}

func TestPolicy_Concurrent(t *testing.T) {
	p := NewPolicy(noJitter())
	t0 := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.SetRestartDelay("alice", t0)
			_ = p.CanRestart("alice", t0)
		}()
	}
	wg.Wait()

	if got := p.Failures("alice"); got != 50 {
		t.Errorf("expected 50 failures, got %d", got)
	}
}
