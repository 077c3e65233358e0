package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind — тип события жизненного цикла worker'а.
type EventKind string

const (
	// EventWorkerStarted — оркестратор запустил worker.
	EventWorkerStarted EventKind = "WORKER_STARTED"

	// EventWorkerTerminated — worker завершился, назначен рестарт.
	EventWorkerTerminated EventKind = "WORKER_TERMINATED"

	// EventWorkerDropped — аккаунт выключен, оркестратор перестал отслеживать worker.
	EventWorkerDropped EventKind = "WORKER_DROPPED"

	// EventWorkerAdopted — аккаунт включили раньше, чем брошенный worker вышел;
	// оркестратор снова отслеживает его вместо запуска второго.
	EventWorkerAdopted EventKind = "WORKER_ADOPTED"

	// EventAccountEnabled — аккаунт включён через control-вход.
	EventAccountEnabled EventKind = "ACCOUNT_ENABLED"

	// EventAccountDisabled — аккаунт выключен через control-вход.
	EventAccountDisabled EventKind = "ACCOUNT_DISABLED"
)

// Event — событие для журнала и внешних наблюдателей.
//
// События только пишутся наружу (Postgres, RabbitMQ) и никогда не читаются
// обратно для восстановления состояния.
type Event struct {
	ID           uuid.UUID  `json:"id"`
	Account      string     `json:"account"`
	Kind         EventKind  `json:"kind"`
	Message      string     `json:"message,omitempty"`
	FailedLogins int        `json:"failed_logins"`
	NextStart    *time.Time `json:"next_start,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewEvent создаёт событие с новым ID.
func NewEvent(account string, kind EventKind, at time.Time) Event {
	return Event{
		ID:        uuid.New(),
		Account:   account,
		Kind:      kind,
		CreatedAt: at,
	}
}
