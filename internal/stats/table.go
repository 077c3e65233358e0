package stats

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shaiso/Capsula/internal/domain"
)

// Table — потокобезопасная таблица статусов (account → entry).
type Table struct {
	entries sync.Map // string → *entry
	now     func() time.Time
}

// entry — изменяемая запись одного аккаунта.
type entry struct {
	mu           sync.RWMutex
	status       string
	enabled      bool
	failedLogins int
	updatedAt    time.Time
}

// NewTable создаёт пустую таблицу.
func NewTable() *Table {
	return &Table{now: time.Now}
}

// InitNewAccount регистрирует аккаунт. Повторный вызов ничего не меняет.
// Возвращает true, если запись была создана.
func (t *Table) InitNewAccount(account domain.Account) bool {
	e := &entry{
		status:    domain.StatusInit,
		enabled:   account.Enabled,
		updatedAt: t.now(),
	}
	_, loaded := t.entries.LoadOrStore(account.ID(), e)
	return !loaded
}

func (t *Table) get(account string) (*entry, bool) {
	v, ok := t.entries.Load(account)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

// GetThreadStatus возвращает флаг enabled. Для неизвестного аккаунта — false.
func (t *Table) GetThreadStatus(account string) bool {
	e, ok := t.get(account)
	if !ok {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.enabled
}

// Enabled — синоним GetThreadStatus.
func (t *Table) Enabled(account string) bool {
	return t.GetThreadStatus(account)
}

// SetEnabled включает или выключает аккаунт.
// Возвращает предыдущее значение флага.
func (t *Table) SetEnabled(account string, enabled bool) (bool, error) {
	e, ok := t.get(account)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.enabled
	e.enabled = enabled
	if !enabled {
		e.status = domain.StatusDisabled
	}
	e.updatedAt = t.now()
	return prev, nil
}

// UpdateStatus заменяет текст статуса. Неизвестные аккаунты игнорируются.
//
// У выключенного аккаунта статус остаётся "Disabled": worker, который ещё
// не заметил выключения, не может его перезаписать.
func (t *Table) UpdateStatus(account, text string) {
	e, ok := t.get(account)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.enabled {
		return
	}
	e.status = text
	e.updatedAt = t.now()
}

// GetFailedLogins возвращает количество подряд неудачных входов.
func (t *Table) GetFailedLogins(account string) int {
	e, ok := t.get(account)
	if !ok {
		return 0
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.failedLogins
}

// AddFailedLogin увеличивает счётчик неудачных входов и возвращает новое значение.
// Для выключенного аккаунта счётчик не меняется.
func (t *Table) AddFailedLogin(account string) int {
	e, ok := t.get(account)
	if !ok {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.enabled {
		return e.failedLogins
	}
	e.failedLogins++
	e.updatedAt = t.now()
	return e.failedLogins
}

// ResetFailedLogins обнуляет счётчик после успешного входа.
func (t *Table) ResetFailedLogins(account string) {
	e, ok := t.get(account)
	if !ok {
		return
	}
	e.mu.Lock()
	e.failedLogins = 0
	e.mu.Unlock()
}

// Get возвращает копию записи.
func (t *Table) Get(account string) (domain.StatusEntry, bool) {
	e, ok := t.get(account)
	if !ok {
		return domain.StatusEntry{}, false
	}
	return e.snapshot(account), true
}

// Snapshot возвращает копии всех записей, отсортированные по имени аккаунта.
//
// Записи копируются по одной, поэтому снимок не атомарен между аккаунтами —
// для observer'а этого достаточно.
func (t *Table) Snapshot() []domain.StatusEntry {
	var out []domain.StatusEntry
	t.entries.Range(func(key, value any) bool {
		out = append(out, value.(*entry).snapshot(key.(string)))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out
}

func (e *entry) snapshot(account string) domain.StatusEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return domain.StatusEntry{
		Account:      account,
		Status:       e.status,
		Enabled:      e.enabled,
		FailedLogins: e.failedLogins,
		UpdatedAt:    e.updatedAt,
	}
}
