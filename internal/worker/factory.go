package worker

import (
	"context"

	"github.com/shaiso/Capsula/internal/domain"
)

// Factory создаёт и запускает worker'ов с общей конфигурацией.
type Factory struct {
	cfg Config
}

// NewFactory создаёт Factory.
func NewFactory(cfg Config) *Factory {
	return &Factory{cfg: cfg}
}

// Spawn запускает worker для аккаунта и возвращает его Handle.
func (f *Factory) Spawn(ctx context.Context, account domain.Account) *Handle {
	return New(f.cfg, account).Start(ctx)
}
