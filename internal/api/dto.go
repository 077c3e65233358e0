package api

import (
	"time"

	"github.com/shaiso/Capsula/internal/domain"
	"github.com/shaiso/Capsula/internal/orchestrator"
)

// Account DTOs

// SetEnabledRequest — запрос на включение/выключение аккаунта.
type SetEnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// AccountResponse — ответ с состоянием аккаунта.
type AccountResponse struct {
	Name            string     `json:"name"`
	Status          string     `json:"status"`
	Enabled         bool       `json:"enabled"`
	FailedLogins    int        `json:"failed_logins"`
	Live            bool       `json:"live"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	NextStart       *time.Time `json:"next_start,omitempty"`
	RestartFailures int        `json:"restart_failures"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AccountFromView конвертирует orchestrator.AccountView в AccountResponse.
func AccountFromView(v orchestrator.AccountView) AccountResponse {
	return AccountResponse{
		Name:            v.Account,
		Status:          v.Status,
		Enabled:         v.Enabled,
		FailedLogins:    v.FailedLogins,
		Live:            v.Live,
		StartedAt:       v.StartedAt,
		NextStart:       v.NextStart,
		RestartFailures: v.RestartFailures,
		UpdatedAt:       v.UpdatedAt,
	}
}

// Event DTOs

// EventResponse — ответ с событием журнала.
type EventResponse struct {
	ID           string     `json:"id"`
	Account      string     `json:"account"`
	Kind         string     `json:"kind"`
	Message      string     `json:"message,omitempty"`
	FailedLogins int        `json:"failed_logins"`
	NextStart    *time.Time `json:"next_start,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// EventFromDomain конвертирует domain.Event в EventResponse.
func EventFromDomain(ev domain.Event) EventResponse {
	return EventResponse{
		ID:           ev.ID.String(),
		Account:      ev.Account,
		Kind:         string(ev.Kind),
		Message:      ev.Message,
		FailedLogins: ev.FailedLogins,
		NextStart:    ev.NextStart,
		CreatedAt:    ev.CreatedAt,
	}
}

// Live DTOs

// LiveResponse — текущая версия общих данных.
type LiveResponse struct {
	Version   uint64         `json:"version"`
	UpdatedAt time.Time      `json:"updated_at"`
	FetchedAt time.Time      `json:"fetched_at"`
	Matches   []domain.Match `json:"matches"`
}
