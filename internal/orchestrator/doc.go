// Package orchestrator держит по одному worker'у на каждый включённый аккаунт.
//
// Orchestrator — единственный владелец набора handles (account → *worker.Handle).
// Раз в TickInterval он:
//   - запускает worker для включённого аккаунта без handle, если RestartPolicy разрешает
//   - перестаёт отслеживать worker выключенного аккаунта (сам worker выйдет на
//     следующей проверке флага)
//   - собирает завершившиеся handles и назначает им рестарт с задержкой
//
// Ошибка или panic на одном аккаунте не прерывает тик для остальных.
//
// Управляющие команды (enable/disable) приходят через SetEnabled: из HTTP API
// или из очереди control.accounts (HandleControl).
package orchestrator
