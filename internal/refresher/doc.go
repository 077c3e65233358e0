// Package refresher периодически обновляет общие live-данные.
//
// Refresher — единственный писатель в shared.Cache[domain.LiveData].
// Расписание задаётся cron-выражением или дескриптором (@every 1m).
// Первое обновление выполняется сразу при старте.
//
// Неудачное обновление не трогает кэш: worker'ы продолжают работать
// с предыдущей версией данных.
package refresher
