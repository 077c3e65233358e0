// Package stats хранит таблицу статусов аккаунтов.
//
// Таблица — единственное место, откуда observer (API, CLI) узнаёт,
// что происходит с аккаунтами. Пишут в неё worker'ы (только в свою запись)
// и оркестратор (после того как забрал завершившийся worker).
//
// Каждая запись защищена своим мьютексом, общей блокировки на всю таблицу
// нет: медленная операция одного аккаунта не мешает остальным.
package stats
