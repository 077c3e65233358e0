package mq

import "errors"

// Ошибки пакета mq.
var (
	// ErrNoChannel — соединение сейчас без канала (идёт reconnect).
	ErrNoChannel = errors.New("no amqp channel available")

	// ErrPermanent — сообщение нельзя обработать никогда, повтор бессмысленен.
	ErrPermanent = errors.New("permanent message error")
)

// Permanent помечает ошибку обработчика как permanent:
// consumer отправит сообщение в DLQ без requeue.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrPermanent, err)
}
