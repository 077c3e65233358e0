package worker

import "errors"

// Ошибки воркера.
var (
	// ErrUnrecoverable — аккаунт сейчас нельзя использовать; worker завершается.
	ErrUnrecoverable = errors.New("unrecoverable account error")

	// ErrLoginFailed — удалённый сервис отклонил вход.
	ErrLoginFailed = errors.New("login failed")

	// ErrPanic — worker завершился из-за panic.
	ErrPanic = errors.New("worker panicked")

	// errNoData — общие данные ещё не опубликованы, цикл пропущен.
	errNoData = errors.New("shared data not available")
)

// IsUnrecoverable сообщает, должен ли worker завершиться из-за err.
func IsUnrecoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnrecoverable) {
		return true
	}
	var u interface{ Unrecoverable() bool }
	if errors.As(err, &u) {
		return u.Unrecoverable()
	}
	return false
}
