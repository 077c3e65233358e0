package restart

import (
	"math/rand/v2"
	"time"
)

// Значения по умолчанию.
const (
	DefaultMinDelay = 10 * time.Second
	DefaultMaxDelay = 15 * time.Minute
	DefaultFactor   = 2.0
	DefaultJitter   = 0.1
)

// Backoff — ограниченная экспоненциальная задержка с jitter.
//
//	base  = min(Max, Min * Factor^(failures-1))
//	delay = base + rand[0, Jitter*base)
//
// Jitter только добавляется, поэтому delay >= Min всегда.
type Backoff struct {
	Min    time.Duration
	Max    time.Duration
	Factor float64
	Jitter float64

	// rand возвращает число из [0, 1). Подменяется в тестах.
	rand func() float64
}

// DefaultBackoff возвращает Backoff со значениями по умолчанию.
func DefaultBackoff() Backoff {
	return Backoff{
		Min:    DefaultMinDelay,
		Max:    DefaultMaxDelay,
		Factor: DefaultFactor,
		Jitter: DefaultJitter,
	}
}

// normalize подставляет значения по умолчанию вместо некорректных.
func (b Backoff) normalize() Backoff {
	if b.Min <= 0 {
		b.Min = DefaultMinDelay
	}
	if b.Max < b.Min {
		b.Max = b.Min
	}
	if b.Factor < 1 {
		b.Factor = DefaultFactor
	}
	if b.Jitter < 0 {
		b.Jitter = 0
	}
	if b.rand == nil {
		b.rand = rand.Float64
	}
	return b
}

// Base возвращает задержку без jitter для n-го падения подряд (n >= 1).
func (b Backoff) Base(failures int) time.Duration {
	b = b.normalize()
	if failures < 1 {
		failures = 1
	}

	delay := b.Min
	for i := 1; i < failures; i++ {
		next := time.Duration(float64(delay) * b.Factor)
		// next < delay — переполнение
		if next > b.Max || next < delay {
			return b.Max
		}
		delay = next
	}
	return min(delay, b.Max)
}

// Delay возвращает задержку с jitter для n-го падения подряд.
func (b Backoff) Delay(failures int) time.Duration {
	b = b.normalize()
	base := b.Base(failures)
	if b.Jitter == 0 {
		return base
	}
	return base + time.Duration(b.rand()*b.Jitter*float64(base))
}
