// Package telemetry обеспечивает наблюдаемость Capsula.
//
// Включает:
//   - logging.go — structured logging через slog (stdout + ротируемый файл)
//   - metrics.go — Prometheus метрики оркестратора, worker'ов и refresher'а
//
// Метрики экспортируются на /metrics endpoint HTTP-сервера.
package telemetry
