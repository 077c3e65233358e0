// Package config загружает конфигурацию процесса из YAML-файла.
//
// Значения по умолчанию подставляются до разбора файла, поэтому в YAML
// достаточно указать только аккаунты. Адреса инфраструктуры можно
// переопределить переменными окружения:
//   - DB_URL            — Postgres для журнала событий
//   - RABBITMQ_URL      — RabbitMQ для событий и управляющих команд
//   - CAPSULA_HTTP_ADDR — адрес HTTP API
//   - LOG_LEVEL, LOG_FORMAT — см. telemetry.LogConfig
package config
