package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// Ошибки клиента.
var (
	// ErrMalformedPayload — ответ сервиса не удалось разобрать или он неполный.
	ErrMalformedPayload = errors.New("malformed response payload")

	// ErrInvalidBaseURL — некорректный базовый URL.
	ErrInvalidBaseURL = errors.New("invalid base url")
)

// StatusCodeError — сервис ответил не тем статусом, который ожидался.
type StatusCodeError struct {
	Expected int
	Got      int
	URL      string
}

func (e *StatusCodeError) Error() string {
	return fmt.Sprintf("unexpected status code: expected %d, got %d (%s)", e.Expected, e.Got, e.URL)
}

// Temporary сообщает, имеет ли смысл повторить запрос.
func (e *StatusCodeError) Temporary() bool {
	return e.Got >= 500 || e.Got == http.StatusTooManyRequests || e.Got == http.StatusRequestTimeout
}

// Unrecoverable — аккаунт нельзя использовать, пока его не перезапустят.
func (e *StatusCodeError) Unrecoverable() bool {
	return !e.Temporary()
}
