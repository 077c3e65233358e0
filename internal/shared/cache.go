package shared

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot — опубликованная версия значения. После публикации не меняется.
type Snapshot[T any] struct {
	Value     T
	Version   uint64
	UpdatedAt time.Time
}

// Cache хранит последнее успешно опубликованное значение.
//
// Публикация — одна атомарная запись указателя: читатель видит либо
// старый snapshot целиком, либо новый целиком. Читатель, уже получивший
// snapshot, продолжает работать со своей копией.
type Cache[T any] struct {
	current atomic.Pointer[Snapshot[T]]

	// writeMu упорядочивает версии, если писателей окажется больше одного.
	writeMu sync.Mutex
	version uint64

	ready     chan struct{}
	readyOnce sync.Once
}

// NewCache создаёт пустой Cache.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{ready: make(chan struct{})}
}

// Publish публикует новое значение и возвращает его snapshot.
func (c *Cache[T]) Publish(value T) *Snapshot[T] {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.version++
	snap := &Snapshot[T]{
		Value:     value,
		Version:   c.version,
		UpdatedAt: time.Now(),
	}
	c.current.Store(snap)
	c.readyOnce.Do(func() { close(c.ready) })
	return snap
}

// Load возвращает текущий snapshot. false — ещё ничего не опубликовано.
func (c *Cache[T]) Load() (*Snapshot[T], bool) {
	snap := c.current.Load()
	return snap, snap != nil
}

// Version возвращает версию текущего snapshot (0 — пусто).
func (c *Cache[T]) Version() uint64 {
	if snap := c.current.Load(); snap != nil {
		return snap.Version
	}
	return 0
}

// Ready закрывается после первой публикации.
func (c *Cache[T]) Ready() <-chan struct{} {
	return c.ready
}

// Wait блокируется до первой публикации и возвращает текущий snapshot.
func (c *Cache[T]) Wait(ctx context.Context) (*Snapshot[T], error) {
	select {
	case <-c.ready:
		snap, _ := c.Load()
		return snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
