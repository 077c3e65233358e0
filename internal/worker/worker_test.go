package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Capsula/internal/domain"
	"github.com/shaiso/Capsula/internal/shared"
	"github.com/shaiso/Capsula/internal/stats"
)

// --- Fakes ---

type authError struct{ code int }

func (e authError) Error() string       { return fmt.Sprintf("status %d", e.code) }
func (e authError) Unrecoverable() bool { return true }

type fakeClient struct {
	mu        sync.Mutex
	loginErrs []error // ошибки по порядку попыток, дальше — успех
	logins    int
	session   *fakeSession
}

func (c *fakeClient) Login(ctx context.Context, _ domain.Account) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logins++
	if len(c.loginErrs) > 0 {
		err := c.loginErrs[0]
		c.loginErrs = c.loginErrs[1:]
		return nil, err
	}
	return c.session, nil
}

type fakeSession struct {
	refreshErr func(n int) error
	watchErr   func(n int) error
	onRefresh  func()

	refreshes atomic.Int32
	watches   atomic.Int32
}

func (s *fakeSession) Refresh(ctx context.Context) error {
	n := int(s.refreshes.Add(1))
	if s.onRefresh != nil {
		s.onRefresh()
	}
	if s.refreshErr != nil {
		return s.refreshErr(n)
	}
	return nil
}

func (s *fakeSession) Watch(ctx context.Context, matches []domain.Match) (int, error) {
	n := int(s.watches.Add(1))
	if s.watchErr != nil {
		if err := s.watchErr(n); err != nil {
			return 0, err
		}
	}
	return len(matches), nil
}

type fakeResetter struct {
	resets atomic.Int32

	mu      sync.Mutex
	firstAt time.Time
}

func (r *fakeResetter) Reset(string) {
	if r.resets.Add(1) == 1 {
		r.mu.Lock()
		r.firstAt = time.Now()
		r.mu.Unlock()
	}
}

func (r *fakeResetter) first() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.firstAt
}

type env struct {
	table *stats.Table
	cache *shared.Cache[domain.LiveData]
	lock  *shared.RefreshLock
}

func newEnv(names ...string) *env {
	e := &env{
		table: stats.NewTable(),
		cache: shared.NewCache[domain.LiveData](),
		lock:  shared.NewRefreshLock(shared.LockConfig{}),
	}
	for _, n := range names {
		e.table.InitNewAccount(domain.Account{Name: n, Enabled: true})
	}
	return e
}

func (e *env) config(client Client) Config {
	return Config{
		Client:        client,
		Status:        e.table,
		Cache:         e.cache,
		Lock:          e.lock,
		Interval:      5 * time.Millisecond,
		DataWait:      5 * time.Millisecond,
		RetryDelay:    time.Millisecond,
		MaxRetryDelay: 4 * time.Millisecond,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func waitDone(t *testing.T, h *Handle) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := h.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("worker did not terminate")
	}
	return err
}

var liveData = domain.LiveData{Matches: []domain.Match{
	{ID: "m1", League: "LEC"},
	{ID: "m2", League: "LCK"},
}}

// --- Worker Tests ---

func TestWorker_UnrecoverableLogin_Terminates(t *testing.T) {
	e := newEnv("alice")
	client := &fakeClient{loginErrs: []error{authError{code: 401}}}

	h := NewFactory(e.config(client)).Spawn(context.Background(), domain.Account{Name: "alice"})
	err := waitDone(t, h)

	if !errors.Is(err, ErrLoginFailed) {
		t.Errorf("expected ErrLoginFailed, got %v", err)
	}
	if !IsUnrecoverable(err) {
		t.Error("termination error should be unrecoverable")
	}
	if n := e.table.GetFailedLogins("alice"); n != 1 {
		t.Errorf("expected 1 failed login, got %d", n)
	}
	entry, _ := e.table.Get("alice")
	if entry.Status != domain.StatusLoginFailed {
		t.Errorf("expected status %q, got %q", domain.StatusLoginFailed, entry.Status)
	}
	if strings.Contains(entry.Status, "401") {
		t.Error("raw error text must not leak into status")
	}
}

func TestWorker_TransientLogin_Retried(t *testing.T) {
	e := newEnv("alice")
	e.cache.Publish(liveData)
	e.table.AddFailedLogin("alice")

	session := &fakeSession{}
	client := &fakeClient{
		loginErrs: []error{errors.New("timeout"), errors.New("connection reset")},
		session:   session,
	}

	h := NewFactory(e.config(client)).Spawn(context.Background(), domain.Account{Name: "alice"})

	waitFor(t, func() bool { return session.watches.Load() >= 2 })
	if !h.Alive() {
		t.Fatal("transient login errors must not terminate the worker")
	}
	if n := e.table.GetFailedLogins("alice"); n != 0 {
		t.Errorf("successful login should reset failed logins, got %d", n)
	}

	entry, _ := e.table.Get("alice")
	if !strings.HasPrefix(entry.Status, "Live: 2/2") {
		t.Errorf("unexpected status %q", entry.Status)
	}

	_, _ = e.table.SetEnabled("alice", false)
	if err := waitDone(t, h); err != nil {
		t.Errorf("disabled worker should exit cleanly, got %v", err)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.logins != 3 {
		t.Errorf("expected 3 login attempts, got %d", client.logins)
	}
}

func TestWorker_DisabledAccount_ExitsOnNextCheck(t *testing.T) {
	e := newEnv("alice")
	e.cache.Publish(liveData)
	_, _ = e.table.SetEnabled("alice", false)

	client := &fakeClient{session: &fakeSession{}}
	h := NewFactory(e.config(client)).Spawn(context.Background(), domain.Account{Name: "alice"})

	if err := waitDone(t, h); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if n := e.table.GetFailedLogins("alice"); n != 0 {
		t.Errorf("disable is not a failure, got %d failed logins", n)
	}
}

func TestWorker_WaitsForSharedData(t *testing.T) {
	e := newEnv("alice")
	session := &fakeSession{}
	client := &fakeClient{session: session}

	h := NewFactory(e.config(client)).Spawn(context.Background(), domain.Account{Name: "alice"})

	waitFor(t, func() bool {
		entry, _ := e.table.Get("alice")
		return entry.Status == domain.StatusWaitingData
	})
	if session.refreshes.Load() != 0 {
		t.Error("worker must not refresh before data is available")
	}

	e.cache.Publish(domain.LiveData{})
	waitFor(t, func() bool { return session.watches.Load() >= 1 })

	entry, _ := e.table.Get("alice")
	if entry.Status != domain.StatusNoMatches {
		t.Errorf("expected %q, got %q", domain.StatusNoMatches, entry.Status)
	}

	_, _ = e.table.SetEnabled("alice", false)
	waitDone(t, h)
}

func TestWorker_RefreshError_ReleasesLock(t *testing.T) {
	e := newEnv("alice")
	e.cache.Publish(liveData)

	session := &fakeSession{
		refreshErr: func(n int) error {
			if n <= 3 {
				return errors.New("rate limited")
			}
			return nil
		},
	}
	client := &fakeClient{session: session}
	h := NewFactory(e.config(client)).Spawn(context.Background(), domain.Account{Name: "alice"})

	waitFor(t, func() bool { return session.watches.Load() >= 1 })
	if !h.Alive() {
		t.Fatal("recoverable refresh errors must not terminate the worker")
	}

	_, _ = e.table.SetEnabled("alice", false)
	waitDone(t, h)

	if got := e.lock.Holders(); got != 0 {
		t.Errorf("lock must be released, holders=%d", got)
	}
}

func TestWorker_UnrecoverableWatch_Terminates(t *testing.T) {
	e := newEnv("alice")
	e.cache.Publish(liveData)

	session := &fakeSession{
		watchErr: func(int) error { return fmt.Errorf("watch: %w", ErrUnrecoverable) },
	}
	h := NewFactory(e.config(&fakeClient{session: session})).Spawn(context.Background(), domain.Account{Name: "alice"})

	err := waitDone(t, h)
	if !errors.Is(err, ErrUnrecoverable) {
		t.Errorf("expected ErrUnrecoverable, got %v", err)
	}
	entry, _ := e.table.Get("alice")
	if entry.Status != domain.StatusUnrecoverable {
		t.Errorf("expected %q, got %q", domain.StatusUnrecoverable, entry.Status)
	}
	if entry.FailedLogins != 1 {
		t.Errorf("expected 1 failed login, got %d", entry.FailedLogins)
	}
	if got := e.lock.Holders(); got != 0 {
		t.Errorf("lock must be released, holders=%d", got)
	}
}

func TestWorker_Panic_ReportedByHandle(t *testing.T) {
	e := newEnv("alice")
	e.cache.Publish(liveData)

	session := &fakeSession{onRefresh: func() { panic("boom") }}
	h := NewFactory(e.config(&fakeClient{session: session})).Spawn(context.Background(), domain.Account{Name: "alice"})

	err := waitDone(t, h)
	if !errors.Is(err, ErrPanic) {
		t.Errorf("expected ErrPanic, got %v", err)
	}
	if got := e.lock.Holders(); got != 0 {
		t.Errorf("lock must be released after panic, holders=%d", got)
	}
}

func TestWorker_ContextCancelled(t *testing.T) {
	e := newEnv("alice")
	e.cache.Publish(liveData)

	ctx, cancel := context.WithCancel(context.Background())
	session := &fakeSession{}
	h := NewFactory(e.config(&fakeClient{session: session})).Spawn(ctx, domain.Account{Name: "alice"})

	waitFor(t, func() bool { return session.watches.Load() >= 1 })
	cancel()

	if err := waitDone(t, h); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if n := e.table.GetFailedLogins("alice"); n != 0 {
		t.Errorf("shutdown is not a failure, got %d", n)
	}
}

func TestWorker_StableResetsRestartBackoff(t *testing.T) {
	e := newEnv("alice")
	e.cache.Publish(liveData)

	resetter := &fakeResetter{}
	cfg := e.config(&fakeClient{session: &fakeSession{}})
	cfg.Restarts = resetter
	cfg.StableAfter = time.Nanosecond

	h := NewFactory(cfg).Spawn(context.Background(), domain.Account{Name: "alice"})
	waitFor(t, func() bool { return resetter.resets.Load() >= 1 })

	_, _ = e.table.SetEnabled("alice", false)
	waitDone(t, h)

	if got := resetter.resets.Load(); got != 1 {
		t.Errorf("backoff should be reset once, got %d", got)
	}
}

func TestWorker_StableCountsOnlyHealthyCycles(t *testing.T) {
	e := newEnv("alice")
	e.cache.Publish(liveData)

	const stableAfter = 100 * time.Millisecond
	start := time.Now()

	var mu sync.Mutex
	var firstSuccess time.Time
	session := &fakeSession{
		watchErr: func(int) error {
			// Дольше stableAfter только сбои
			if time.Since(start) < 150*time.Millisecond {
				return errors.New("gateway timeout")
			}
			mu.Lock()
			if firstSuccess.IsZero() {
				firstSuccess = time.Now()
			}
			mu.Unlock()
			return nil
		},
	}

	resetter := &fakeResetter{}
	cfg := e.config(&fakeClient{session: session})
	cfg.Restarts = resetter
	cfg.StableAfter = stableAfter

	h := NewFactory(cfg).Spawn(context.Background(), domain.Account{Name: "alice"})
	waitFor(t, func() bool { return resetter.resets.Load() >= 1 })

	_, _ = e.table.SetEnabled("alice", false)
	waitDone(t, h)

	mu.Lock()
	healthy := resetter.first().Sub(firstSuccess)
	mu.Unlock()
	if healthy < stableAfter {
		t.Errorf("backoff reset after %s of healthy cycles, want at least %s", healthy, stableAfter)
	}
}

func TestWorker_DisabledMidCycle_KeepsDisabledStatus(t *testing.T) {
	tests := []struct {
		name     string
		watchErr error
		wantErr  bool
	}{
		{name: "cycle succeeds", watchErr: nil},
		{name: "cycle fails unrecoverably", watchErr: authError{code: 403}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv("alice")
			e.cache.Publish(liveData)

			entered := make(chan struct{})
			release := make(chan struct{})
			session := &fakeSession{
				watchErr: func(n int) error {
					if n == 1 {
						close(entered)
						<-release
					}
					return tt.watchErr
				},
			}

			h := NewFactory(e.config(&fakeClient{session: session})).Spawn(context.Background(), domain.Account{Name: "alice"})

			<-entered
			_, _ = e.table.SetEnabled("alice", false)
			close(release)

			err := waitDone(t, h)
			if (err != nil) != tt.wantErr {
				t.Errorf("unexpected error: %v", err)
			}

			entry, _ := e.table.Get("alice")
			if entry.Status != domain.StatusDisabled {
				t.Errorf("expected status %q, got %q", domain.StatusDisabled, entry.Status)
			}
			if entry.FailedLogins != 0 {
				t.Errorf("disabled account must not count failures, got %d", entry.FailedLogins)
			}
		})
	}
}

func TestWorker_SharedLock_SingleHolder(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f"}
	e := newEnv(names...)
	e.cache.Publish(liveData)

	var inside, maxInside atomic.Int32
	session := func() *fakeSession {
		return &fakeSession{onRefresh: func() {
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(100 * time.Microsecond)
			inside.Add(-1)
		}}
	}

	var handles []*Handle
	var sessions []*fakeSession
	for _, n := range names {
		s := session()
		sessions = append(sessions, s)
		h := NewFactory(e.config(&fakeClient{session: s})).Spawn(context.Background(), domain.Account{Name: n})
		handles = append(handles, h)
	}

	waitFor(t, func() bool {
		for _, s := range sessions {
			if s.refreshes.Load() < 3 {
				return false
			}
		}
		return true
	})

	for _, n := range names {
		_, _ = e.table.SetEnabled(n, false)
	}
	for _, h := range handles {
		waitDone(t, h)
	}

	if got := maxInside.Load(); got != 1 {
		t.Errorf("refresh ran concurrently: max %d", got)
	}
	if got := e.lock.MaxHolders(); got != 1 {
		t.Errorf("lock max holders should be 1, got %d", got)
	}
}

// --- Helpers Tests ---

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{50, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := calculateBackoff(tt.attempt, time.Second, 10*time.Second); got != tt.want {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestIsUnrecoverable(t *testing.T) {
	if IsUnrecoverable(nil) {
		t.Error("nil is not unrecoverable")
	}
	if IsUnrecoverable(errors.New("timeout")) {
		t.Error("plain error is recoverable")
	}
	if !IsUnrecoverable(fmt.Errorf("wrap: %w", authError{code: 403})) {
		t.Error("wrapped Unrecoverable() error should be detected")
	}
	if !IsUnrecoverable(fmt.Errorf("wrap: %w", ErrUnrecoverable)) {
		t.Error("wrapped ErrUnrecoverable should be detected")
	}
}

func TestLiveStatus(t *testing.T) {
	got := liveStatus([]domain.Match{
		{ID: "1", League: "LEC"},
		{ID: "2", League: "LEC"},
		{ID: "3", League: "LCK"},
	}, 2)
	if got != "Live: 2/3 LEC, LCK" {
		t.Errorf("unexpected status %q", got)
	}
	if liveStatus(nil, 0) != domain.StatusNoMatches {
		t.Error("expected no-matches status")
	}
}

// --- Handle Tests ---

func TestHandle_Lifecycle(t *testing.T) {
	release := make(chan struct{})
	boom := errors.New("boom")

	h := Go("alice", func() error {
		<-release
		return boom
	})

	if !h.Alive() {
		t.Error("handle should be alive")
	}
	if h.Err() != nil {
		t.Error("Err should be nil while running")
	}
	if h.Account() != "alice" {
		t.Errorf("unexpected account %q", h.Account())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := h.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	close(release)
	<-h.Done()

	if h.Alive() {
		t.Error("handle should be dead")
	}
	if !errors.Is(h.Err(), boom) {
		t.Errorf("expected boom, got %v", h.Err())
	}
}
