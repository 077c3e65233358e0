package restart

import (
	"sync"
	"time"
)

// Record — снимок RestartRecord аккаунта.
type Record struct {
	Failures     int
	LastFailure  time.Time
	NextEligible time.Time
}

// record — изменяемая запись; у каждого аккаунта свой мьютекс.
type record struct {
	mu sync.Mutex
	Record
}

// Policy хранит RestartRecord для всех аккаунтов.
type Policy struct {
	backoff Backoff
	records sync.Map // string → *record
}

// NewPolicy создаёт Policy с заданным Backoff.
func NewPolicy(backoff Backoff) *Policy {
	return &Policy{
		backoff: backoff.normalize(),
	}
}

// Backoff возвращает используемую функцию задержки.
func (p *Policy) Backoff() Backoff {
	return p.backoff
}

// CanRestart возвращает true, если now >= nextEligible.
// Аккаунт без записи можно запускать сразу.
func (p *Policy) CanRestart(account string, now time.Time) bool {
	v, ok := p.records.Load(account)
	if !ok {
		return true
	}
	r := v.(*record)
	r.mu.Lock()
	defer r.mu.Unlock()
	return !now.Before(r.NextEligible)
}

// SetRestartDelay фиксирует очередное падение и назначает время рестарта.
//
// nextEligible = max(предыдущий nextEligible, now + Delay(failures)),
// поэтому частые падения не могут сдвинуть рестарт раньше уже назначенного.
func (p *Policy) SetRestartDelay(account string, now time.Time) time.Time {
	v, _ := p.records.LoadOrStore(account, &record{})
	r := v.(*record)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Failures++
	r.LastFailure = now

	next := now.Add(p.backoff.Delay(r.Failures))
	if next.Before(r.NextEligible) {
		next = r.NextEligible
	}
	r.NextEligible = next
	return next
}

// GetNextStart возвращает назначенное время рестарта.
func (p *Policy) GetNextStart(account string) (time.Time, bool) {
	rec, ok := p.Get(account)
	if !ok {
		return time.Time{}, false
	}
	return rec.NextEligible, true
}

// Get возвращает копию записи аккаунта.
func (p *Policy) Get(account string) (Record, bool) {
	v, ok := p.records.Load(account)
	if !ok {
		return Record{}, false
	}
	r := v.(*record)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Record, true
}

// Failures возвращает количество падений подряд.
func (p *Policy) Failures(account string) int {
	rec, _ := p.Get(account)
	return rec.Failures
}

// Reset удаляет запись аккаунта: worker отработал стабильно,
// следующая задержка снова начнётся с минимальной.
func (p *Policy) Reset(account string) {
	p.records.Delete(account)
}
