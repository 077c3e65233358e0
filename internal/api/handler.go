package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/Capsula/internal/domain"
	"github.com/shaiso/Capsula/internal/orchestrator"
	"github.com/shaiso/Capsula/internal/repo"
	"github.com/shaiso/Capsula/internal/shared"
)

// AccountService — состояние и управление аккаунтами. Реализуется orchestrator.Orchestrator.
type AccountService interface {
	DescribeAll() []orchestrator.AccountView
	Describe(account string) (orchestrator.AccountView, bool)
	SetEnabled(ctx context.Context, account string, enabled bool) error
}

// EventLister — чтение журнала событий. Реализуется repo.EventRepo.
type EventLister interface {
	List(ctx context.Context, filter repo.EventFilter) ([]domain.Event, error)
	Count(ctx context.Context, filter repo.EventFilter) (int, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	accounts AccountService
	events   EventLister
	live     *shared.Cache[domain.LiveData]
	logger   *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Accounts AccountService

	// Events — журнал (опционально; без него /events отвечает 503).
	Events EventLister

	// Live — общие данные (опционально).
	Live *shared.Cache[domain.LiveData]

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		accounts: cfg.Accounts,
		events:   cfg.Events,
		live:     cfg.Live,
		logger:   logger,
	}
}
