package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeEvents  Exchange = "capsula.events"
	ExchangeControl Exchange = "capsula.control"
	ExchangeDLQ     Exchange = "capsula.dlq"
)

// Queues — имена очередей.
const (
	QueueEventsWorker    Queue = "events.worker"
	QueueControlAccounts Queue = "control.accounts"
	QueueDLQControl      Queue = "dlq.control"
)

// Routing keys.
const (
	RoutingKeyWorker     RoutingKey = "worker"
	RoutingKeyAccounts   RoutingKey = "accounts"
	RoutingKeyDLQControl RoutingKey = "control"
)

// eventsTTL — сколько событие живёт в events.worker без потребителя (мс).
const eventsTTL = 24 * 60 * 60 * 1000

// SetupTopology объявляет exchanges, queues и bindings. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	for _, ex := range []Exchange{ExchangeEvents, ExchangeControl, ExchangeDLQ} {
		err := ch.ExchangeDeclare(
			string(ex), // name
			"direct",   // type
			true,       // durable
			false,      // auto-deleted
			false,      // internal
			false,      // no-wait
			nil,        // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex, err)
		}
	}
	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// events.worker — история для наблюдателей, старые события отбрасываются
		{QueueEventsWorker, amqp.Table{"x-message-ttl": int32(eventsTTL)}},

		// control.accounts — некорректные команды уходят в DLQ
		{QueueControlAccounts, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQControl),
		}},

		{QueueDLQControl, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}
	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueEventsWorker, RoutingKeyWorker, ExchangeEvents},
		{QueueControlAccounts, RoutingKeyAccounts, ExchangeControl},
		{QueueDLQControl, RoutingKeyDLQControl, ExchangeDLQ},
	}

	for _, b := range bindings {
		if err := ch.QueueBind(string(b.queue), string(b.routingKey), string(b.exchange), false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}
