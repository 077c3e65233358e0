package refresher

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер расписаний. Поддерживает стандартные 5 полей
// и дескрипторы (@hourly, @every 30s).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule парсит расписание обновлений.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, expr, err)
	}
	return sched, nil
}

// ValidateSchedule проверяет валидность расписания.
func ValidateSchedule(expr string) error {
	_, err := ParseSchedule(expr)
	return err
}

// nextDelay вычисляет паузу до следующего запуска.
func nextDelay(sched cron.Schedule, from time.Time) time.Duration {
	next := sched.Next(from)
	if next.IsZero() {
		// Расписание больше не срабатывает
		return 0
	}
	return next.Sub(from)
}
