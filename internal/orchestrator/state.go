package orchestrator

import (
	"slices"
	"time"

	"github.com/shaiso/Capsula/internal/domain"
	"github.com/shaiso/Capsula/internal/worker"
)

// AccountView — состояние аккаунта для наблюдателей (API, CLI).
type AccountView struct {
	domain.StatusEntry

	// Live — оркестратор отслеживает живой worker.
	Live bool `json:"live"`

	// StartedAt — время запуска текущего worker'а.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// NextStart — время, раньше которого worker не будет перезапущен.
	NextStart *time.Time `json:"next_start,omitempty"`

	// RestartFailures — завершений подряд с последнего сброса backoff.
	RestartFailures int `json:"restart_failures"`
}

// Accounts возвращает копию списка аккаунтов.
func (o *Orchestrator) Accounts() []domain.Account {
	return slices.Clone(o.accounts)
}

// Describe возвращает состояние одного аккаунта.
func (o *Orchestrator) Describe(account string) (AccountView, bool) {
	entry, ok := o.status.Get(account)
	if !ok {
		return AccountView{}, false
	}

	view := AccountView{
		StatusEntry:     entry,
		RestartFailures: o.restarts.Failures(account),
	}

	if h := o.getHandle(account); h != nil {
		view.Live = h.Alive()
		started := h.StartedAt()
		view.StartedAt = &started
	}
	if next, ok := o.restarts.GetNextStart(account); ok {
		view.NextStart = &next
	}

	return view, true
}

// DescribeAll возвращает состояние всех аккаунтов в порядке имён.
func (o *Orchestrator) DescribeAll() []AccountView {
	entries := o.status.Snapshot()
	views := make([]AccountView, 0, len(entries))
	for _, e := range entries {
		if v, ok := o.Describe(e.Account); ok {
			views = append(views, v)
		}
	}
	return views
}

// LiveCount возвращает количество живых отслеживаемых worker'ов.
func (o *Orchestrator) LiveCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	n := 0
	for _, h := range o.handles {
		if h.Alive() {
			n++
		}
	}
	return n
}

// HasHandle проверяет, отслеживается ли worker аккаунта.
func (o *Orchestrator) HasHandle(account string) bool {
	return o.getHandle(account) != nil
}

// getHandle возвращает handle аккаунта.
func (o *Orchestrator) getHandle(account string) *worker.Handle {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.handles[account]
}

// setHandle сохраняет handle аккаунта.
func (o *Orchestrator) setHandle(account string, h *worker.Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handles[account] = h
}

// removeHandle удаляет handle, если он всё ещё текущий для аккаунта.
func (o *Orchestrator) removeHandle(account string, h *worker.Handle) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.handles[account] != h {
		return false
	}
	delete(o.handles, account)
	return true
}

// dropHandle перестаёт отслеживать handle и запоминает его как orphan.
func (o *Orchestrator) dropHandle(account string, h *worker.Handle) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.handles[account] != h {
		return false
	}
	delete(o.handles, account)
	if h.Alive() {
		o.orphans[account] = h
	}
	return true
}

// adoptOrphan возвращает живой orphan аккаунта обратно в handles.
// Вышедший orphan просто забывается; тогда возвращается nil.
func (o *Orchestrator) adoptOrphan(account string) *worker.Handle {
	o.mu.Lock()
	defer o.mu.Unlock()

	h, ok := o.orphans[account]
	if !ok {
		return nil
	}
	delete(o.orphans, account)
	if !h.Alive() {
		return nil
	}
	o.handles[account] = h
	return h
}

// pruneOrphans забывает orphans, чей worker уже вышел.
func (o *Orchestrator) pruneOrphans() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for account, h := range o.orphans {
		if !h.Alive() {
			delete(o.orphans, account)
		}
	}
}

// OrphanCount возвращает количество брошенных, но ещё живых worker'ов.
func (o *Orchestrator) OrphanCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	n := 0
	for _, h := range o.orphans {
		if h.Alive() {
			n++
		}
	}
	return n
}

// finishedHandles собирает завершившиеся handles.
func (o *Orchestrator) finishedHandles() []*worker.Handle {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var done []*worker.Handle
	for _, h := range o.handles {
		if !h.Alive() {
			done = append(done, h)
		}
	}
	return done
}

// snapshotHandles возвращает копию текущих handles вместе с orphans.
func (o *Orchestrator) snapshotHandles() []*worker.Handle {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]*worker.Handle, 0, len(o.handles)+len(o.orphans))
	for _, h := range o.handles {
		out = append(out, h)
	}
	for _, h := range o.orphans {
		out = append(out, h)
	}
	return out
}
