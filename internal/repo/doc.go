// Package repo — журнал событий worker'ов в Postgres (pgx).
//
// Журнал только дописывается и читается наблюдателями (API, CLI).
// Состояние процесса из него не восстанавливается.
package repo
