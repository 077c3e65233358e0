// Package api содержит HTTP API для наблюдателей и управления аккаунтами.
//
// Структура:
//   - handler.go         — Handler с DI (оркестратор, журнал, кэш, logger)
//   - routes.go          — регистрация маршрутов
//   - middleware.go      — middleware (logging, recovery)
//   - response.go        — унифицированные JSON-ответы и обработка ошибок
//   - dto.go             — Data Transfer Objects (request/response)
//   - account_handler.go — обработчики для /accounts
//   - event_handler.go   — обработчики для /events и /live
//
// Чтение состояния не блокирует оркестратор: ответы строятся из снимков
// таблицы статусов и restart policy.
package api
