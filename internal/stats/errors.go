package stats

import "errors"

// ErrUnknownAccount — аккаунт не зарегистрирован в таблице.
var ErrUnknownAccount = errors.New("unknown account")
