package refresher

import "errors"

// Ошибки refresher'а.
var (
	// ErrNoSource — Source не передан в Config.
	ErrNoSource = errors.New("refresher: source is required")

	// ErrNoCache — Cache не передан в Config.
	ErrNoCache = errors.New("refresher: cache is required")

	// ErrInvalidSchedule — расписание не парсится.
	ErrInvalidSchedule = errors.New("invalid refresh schedule")
)
