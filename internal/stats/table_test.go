package stats

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shaiso/Capsula/internal/domain"
)

// --- InitNewAccount Tests ---

func TestTable_InitNewAccount_Idempotent(t *testing.T) {
	table := NewTable()
	acct := domain.Account{Name: "alice", Enabled: true}

	if !table.InitNewAccount(acct) {
		t.Fatal("first init should create entry")
	}

	table.UpdateStatus("alice", "LIVE")
	table.AddFailedLogin("alice")

	// Повторная инициализация не должна сбрасывать запись
	if table.InitNewAccount(domain.Account{Name: "alice", Enabled: false}) {
		t.Error("second init should not create entry")
	}

	entry, ok := table.Get("alice")
	if !ok {
		t.Fatal("entry should exist")
	}
	if entry.Status != "LIVE" {
		t.Errorf("expected status LIVE, got %q", entry.Status)
	}
	if !entry.Enabled {
		t.Error("enabled flag should be preserved")
	}
	if entry.FailedLogins != 1 {
		t.Errorf("expected 1 failed login, got %d", entry.FailedLogins)
	}
}

func TestTable_InitNewAccount_InitialState(t *testing.T) {
	table := NewTable()
	table.InitNewAccount(domain.Account{Name: "bob", Enabled: false})

	if table.GetThreadStatus("bob") {
		t.Error("bob should start disabled")
	}
	if got := table.GetFailedLogins("bob"); got != 0 {
		t.Errorf("expected 0 failed logins, got %d", got)
	}
	entry, _ := table.Get("bob")
	if entry.Status != domain.StatusInit {
		t.Errorf("expected status %q, got %q", domain.StatusInit, entry.Status)
	}
}

// --- Enabled Tests ---

func TestTable_SetEnabled(t *testing.T) {
	table := NewTable()
	table.InitNewAccount(domain.Account{Name: "alice", Enabled: true})

	prev, err := table.SetEnabled("alice", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !prev {
		t.Error("previous value should be true")
	}
	if table.Enabled("alice") {
		t.Error("alice should be disabled")
	}

	entry, _ := table.Get("alice")
	if entry.Status != domain.StatusDisabled {
		t.Errorf("expected status %q, got %q", domain.StatusDisabled, entry.Status)
	}
}

func TestTable_SetEnabled_UnknownAccount(t *testing.T) {
	table := NewTable()

	_, err := table.SetEnabled("ghost", true)
	if !errors.Is(err, ErrUnknownAccount) {
		t.Errorf("expected ErrUnknownAccount, got %v", err)
	}
	if table.GetThreadStatus("ghost") {
		t.Error("unknown account should report disabled")
	}
}

// --- Failed logins Tests ---

func TestTable_FailedLogins(t *testing.T) {
	table := NewTable()
	table.InitNewAccount(domain.Account{Name: "alice", Enabled: true})

	if n := table.AddFailedLogin("alice"); n != 1 {
		t.Errorf("expected 1, got %d", n)
	}
	if n := table.AddFailedLogin("alice"); n != 2 {
		t.Errorf("expected 2, got %d", n)
	}

	table.ResetFailedLogins("alice")
	if n := table.GetFailedLogins("alice"); n != 0 {
		t.Errorf("expected 0 after reset, got %d", n)
	}
}

func TestTable_DisabledAccount_KeepsDisabledStatus(t *testing.T) {
	table := NewTable()
	table.InitNewAccount(domain.Account{Name: "alice", Enabled: true})
	table.AddFailedLogin("alice")

	if _, err := table.SetEnabled("alice", false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}

	// Запоздавшие записи worker'а, который ещё не заметил выключения
	table.UpdateStatus("alice", "Live: 2/2 LEC, LCK")
	if n := table.AddFailedLogin("alice"); n != 1 {
		t.Errorf("counter must not grow while disabled, got %d", n)
	}

	entry, _ := table.Get("alice")
	if entry.Status != domain.StatusDisabled {
		t.Errorf("expected status %q, got %q", domain.StatusDisabled, entry.Status)
	}

	// После включения статус снова пишется
	_, _ = table.SetEnabled("alice", true)
	table.UpdateStatus("alice", domain.StatusInit)
	if entry, _ := table.Get("alice"); entry.Status != domain.StatusInit {
		t.Errorf("expected status %q after enable, got %q", domain.StatusInit, entry.Status)
	}
}

func TestTable_UnknownAccount_NoOp(t *testing.T) {
	table := NewTable()

	table.UpdateStatus("ghost", "x")
	if n := table.AddFailedLogin("ghost"); n != 0 {
		t.Errorf("expected 0, got %d", n)
	}
	if _, ok := table.Get("ghost"); ok {
		t.Error("ghost should not be created implicitly")
	}
}

// --- Snapshot Tests ---

func TestTable_Snapshot_Sorted(t *testing.T) {
	table := NewTable()
	for _, name := range []string{"carol", "alice", "bob"} {
		table.InitNewAccount(domain.Account{Name: name, Enabled: true})
	}

	snap := table.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snap))
	}
	want := []string{"alice", "bob", "carol"}
	for i, e := range snap {
		if e.Account != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], e.Account)
		}
	}
}

// --- Concurrency Tests ---

func TestTable_ConcurrentAccess(t *testing.T) {
	table := NewTable()
	const accounts = 8
	for i := 0; i < accounts; i++ {
		table.InitNewAccount(domain.Account{Name: fmt.Sprintf("acct-%d", i), Enabled: true})
	}

	var wg sync.WaitGroup
	for i := 0; i < accounts; i++ {
		name := fmt.Sprintf("acct-%d", i)

		// writer (worker)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				table.UpdateStatus(name, fmt.Sprintf("tick %d", j))
				table.AddFailedLogin(name)
			}
		}()

		// reader (observer)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = table.Snapshot()
				_ = table.GetThreadStatus(name)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < accounts; i++ {
		name := fmt.Sprintf("acct-%d", i)
		if n := table.GetFailedLogins(name); n != 100 {
			t.Errorf("%s: expected 100 failed logins, got %d", name, n)
		}
	}
}
