// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий worker'ов
//   - consumer.go   — потребление управляющих команд
//
// Типы сообщений:
//   - worker.event    — событие жизненного цикла worker'а (domain.Event)
//   - account.enable  — включить аккаунт
//   - account.disable — выключить аккаунт
//
// Exchanges:
//   - capsula.events  — события для внешних наблюдателей
//   - capsula.control — управляющие команды
//   - capsula.dlq     — dead letter queue
package mq
