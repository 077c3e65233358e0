package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/Capsula/internal/mq"
)

// HandleControl обрабатывает управляющее сообщение из control.accounts.
//
// Некорректные сообщения и неизвестные аккаунты помечаются как permanent —
// consumer отправит их в DLQ, а не будет переотправлять.
func (o *Orchestrator) HandleControl(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.ControlPayload](&delivery.Message)
	if err != nil {
		o.logger.Error("failed to parse control payload", "error", err)
		return mq.Permanent(err)
	}

	var enabled bool
	switch delivery.Message.Type {
	case mq.MessageTypeAccountEnable:
		enabled = true
	case mq.MessageTypeAccountDisable:
		enabled = false
	default:
		return mq.Permanent(fmt.Errorf("%w: %s", ErrUnknownCommand, delivery.Message.Type))
	}

	o.logger.Debug("received control command",
		"type", delivery.Message.Type,
		"account", payload.Account,
	)

	if err := o.SetEnabled(ctx, payload.Account, enabled); err != nil {
		if errors.Is(err, ErrUnknownAccount) {
			o.logger.Warn("control command for unknown account", "account", payload.Account)
			return mq.Permanent(err)
		}
		return err
	}

	return nil
}
