package domain

import "time"

// Тексты статусов, которые worker и оркестратор пишут в таблицу.
// Observer показывает их как есть.
const (
	StatusInit          = "Init"
	StatusLoggingIn     = "Logging in"
	StatusWaitingData   = "Waiting for live data"
	StatusNoMatches     = "Live (no matches)"
	StatusDisabled      = "Disabled"
	StatusLoginFailed   = "Login failed"
	StatusUnrecoverable = "Account unavailable"
)

// StatusEntry — снимок состояния одного аккаунта.
//
// Создаётся при старте для каждого аккаунта из конфигурации и никогда
// не удаляется. Меняется только worker'ом этого аккаунта и оркестратором
// (когда он забирает завершившийся worker).
type StatusEntry struct {
	// Account — имя аккаунта.
	Account string `json:"account"`

	// Status — человекочитаемый текст статуса.
	Status string `json:"status"`

	// Enabled — разрешено ли держать worker для аккаунта.
	Enabled bool `json:"enabled"`

	// FailedLogins — количество подряд неудачных входов.
	FailedLogins int `json:"failed_logins"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}
