package config

import "errors"

// Ошибки конфигурации.
var (
	// ErrNoAccounts — в конфигурации нет ни одного аккаунта.
	ErrNoAccounts = errors.New("no accounts configured")

	// ErrDuplicateAccount — два аккаунта с одинаковым username.
	ErrDuplicateAccount = errors.New("duplicate account")

	// ErrEmptyCredentials — у аккаунта пустой username или password.
	ErrEmptyCredentials = errors.New("empty account credentials")

	// ErrInvalidValue — недопустимое значение параметра.
	ErrInvalidValue = errors.New("invalid config value")
)
