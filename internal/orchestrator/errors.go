package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrUnknownAccount — аккаунта нет в конфигурации.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrUnknownCommand — неизвестный тип управляющего сообщения.
	ErrUnknownCommand = errors.New("unknown control command")

	// ErrOrchestratorStopped — оркестратор остановлен.
	ErrOrchestratorStopped = errors.New("orchestrator stopped")
)
