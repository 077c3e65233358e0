package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/Capsula/internal/telemetry"
)

// ListAccounts возвращает состояние всех аккаунтов.
// GET /api/v1/accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	views := h.accounts.DescribeAll()

	result := make([]AccountResponse, len(views))
	for i, v := range views {
		result[i] = AccountFromView(v)
	}

	List(w, result, len(result))
}

// GetAccount возвращает состояние одного аккаунта.
// GET /api/v1/accounts/{name}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	view, ok := h.accounts.Describe(r.PathValue("name"))
	if !ok {
		NotFound(w, "account not found")
		return
	}

	Success(w, AccountFromView(view))
}

// SetAccountEnabled включает или выключает аккаунт.
// PUT /api/v1/accounts/{name}/enabled
func (h *Handler) SetAccountEnabled(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Enabled == nil {
		BadRequest(w, "enabled is required")
		return
	}

	if err := h.accounts.SetEnabled(r.Context(), name, *req.Enabled); HandleServiceError(w, h.logger, err) {
		return
	}

	telemetry.FromContext(r.Context()).Info("account flag changed via api", "account", name, "enabled", *req.Enabled)

	view, ok := h.accounts.Describe(name)
	if !ok {
		NotFound(w, "account not found")
		return
	}
	Success(w, AccountFromView(view))
}
