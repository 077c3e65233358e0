// Package shared содержит ресурсы, общие для всех worker'ов.
//
//   - Cache[T] — версионированное значение с атомарной публикацией.
//     Пишет только refresher, читают все worker'ы.
//   - RefreshLock — единственный на процесс мьютекс для операций,
//     которые нельзя выполнять параллельно из разных worker'ов.
//
// Оба ресурса передаются worker'ам явно (через конструктор),
// глобальных переменных нет.
package shared
