// Package cli реализует инструмент командной строки Capsula.
//
// CLI работает только через HTTP API фермы и не импортирует внутренние
// пакеты системы: типы ответов продублированы в client.go.
//
//	client := cli.NewClient("http://localhost:8080")
//	accounts, err := client.ListAccounts(ctx)
//
// Вывод — таблица (text/tabwriter) или JSON с флагом --json. Данные
// пишутся в stdout, сообщения — в stderr, поэтому работает pipe:
//
//	capsula account list --json | jq '.[] | select(.live == false)'
//
// Команды:
//   - account: list, show, enable, disable
//   - events: журнал событий с фильтрами --account, --kind, --limit
//   - live: текущие общие данные
//
// Группы создаются фабриками (NewAccountCmd и т.д.), принимающими clientFn
// и outputFn — замыкания, которые откладывают создание Client и Output до
// разбора PersistentFlags.
package cli
