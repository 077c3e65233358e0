package worker

import (
	"context"
	"fmt"
	"time"
)

// Handle — join-handle горутины worker'а.
//
// Принадлежит оркестратору. Done() закрывается, когда горутина
// завершилась любым способом, включая panic.
type Handle struct {
	account   string
	startedAt time.Time
	done      chan struct{}
	err       error
}

// Go запускает fn в отдельной горутине и возвращает её Handle.
func Go(account string, fn func() error) *Handle {
	h := &Handle{
		account:   account,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		h.err = fn()
	}()

	return h
}

// Account возвращает имя аккаунта.
func (h *Handle) Account() string {
	return h.account
}

// StartedAt возвращает время запуска.
func (h *Handle) StartedAt() time.Time {
	return h.startedAt
}

// Done закрывается после завершения горутины.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Alive проверяет, работает ли ещё горутина. Не блокируется.
func (h *Handle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Err возвращает ошибку завершения. Пока горутина жива — nil.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait ждёт завершения горутины или отмены ctx.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
