// Package worker выполняет работу одного аккаунта.
//
// # Обзор
//
// На каждый включённый аккаунт оркестратор держит ровно один Worker.
// Worker — долгоживущая горутина, которая:
//
//   - Логинится в удалённый сервис через Client
//   - Ждёт, пока refresher опубликует общие данные (shared.Cache)
//   - Обновляет сессию под общим RefreshLock
//   - Отправляет watch-heartbeat для каждой live-трансляции
//   - Пишет свой статус в таблицу статусов
//
// # Запуск
//
// Worker запускается через Factory.Spawn и возвращает Handle — join-handle
// горутины. Оркестратор опрашивает Handle.Alive() на каждом тике:
//
//	factory := worker.NewFactory(worker.Config{
//	    Client: client,
//	    Status: table,
//	    Cache:  cache,
//	    Lock:   lock,
//	    Logger: logger,
//	})
//
//	h := factory.Spawn(ctx, account)
//	<-h.Done()
//	err := h.Err()
//
// # Ошибки
//
// Пакет различает два класса ошибок:
//   - Recoverable (сеть, таймаут, 5xx, 429) — retry внутри worker'а
//     с exponential backoff, ограниченным MaxRetryDelay. Наружу не выходят.
//   - Unrecoverable (ошибка в цепочке реализует Unrecoverable() bool
//     или оборачивает ErrUnrecoverable) — worker увеличивает счётчик
//     неудачных входов и завершается. Рестарт — забота оркестратора.
//
// Panic внутри worker'а перехватывается Handle и считается завершением.
//
// # Выключение аккаунта
//
// Явного сигнала отмены нет. В начале каждого цикла worker проверяет флаг
// enabled и сам завершается, если аккаунт выключили.
package worker
