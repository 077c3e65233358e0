// Package remote — HTTP-клиент удалённого сервиса.
//
// Client реализует worker.Client (вход и сессия аккаунта),
// LiveSource реализует refresher.Source (список live-трансляций).
//
// Неожиданный HTTP статус возвращается как *StatusCodeError.
// 5xx, 408 и 429 считаются временными, остальные коды — unrecoverable
// для аккаунта (см. worker.IsUnrecoverable).
package remote
