package worker

import (
	"context"

	"github.com/shaiso/Capsula/internal/domain"
)

// Client — внешний сервис, с которым работает worker.
//
// Вся сетевая часть живёт за этим интерфейсом. Ошибки должны позволять
// отличить recoverable от unrecoverable (см. IsUnrecoverable).
type Client interface {
	Login(ctx context.Context, account domain.Account) (Session, error)
}

// Session — залогиненная сессия одного аккаунта.
type Session interface {
	// Refresh обновляет токены сессии. Вызывается под RefreshLock.
	Refresh(ctx context.Context) error

	// Watch отправляет heartbeat для трансляций и возвращает, сколько приняты.
	Watch(ctx context.Context, matches []domain.Match) (int, error)
}

// StatusTable — часть таблицы статусов, в которую пишет worker.
// Worker трогает только запись своего аккаунта.
type StatusTable interface {
	Enabled(account string) bool
	UpdateStatus(account, text string)
	AddFailedLogin(account string) int
	ResetFailedLogins(account string)
}

// RestartResetter сбрасывает RestartRecord аккаунта после стабильной работы.
type RestartResetter interface {
	Reset(account string)
}
