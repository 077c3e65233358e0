package repo

import "errors"

// Ошибки репозиториев.
var (
	// ErrAlreadyExists — событие с таким ID уже записано.
	ErrAlreadyExists = errors.New("already exists")
)
