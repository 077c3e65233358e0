// Package restart решает, когда упавший аккаунт можно запустить снова.
//
// Для каждого аккаунта хранится RestartRecord: сколько раз подряд worker
// завершился и когда он снова может быть запущен. Запись создаётся лениво
// при первом падении.
//
// Состояния аккаунта:
//
//	no-record ──fail──▶ scheduled ──time──▶ eligible ──fail──▶ scheduled
//	    ▲                                                         │
//	    └──────────────────────────── Reset ──────────────────────┘
//
// Задержка считается Backoff'ом: экспонента с потолком и аддитивным jitter.
// nextEligible никогда не уменьшается между падениями без Reset.
package restart
