package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		RequestID(h.logger),
		Logging(),
		Recovery(),
	)

	// Accounts
	mux.Handle("GET /api/v1/accounts", chain(http.HandlerFunc(h.ListAccounts)))
	mux.Handle("GET /api/v1/accounts/{name}", chain(http.HandlerFunc(h.GetAccount)))
	mux.Handle("PUT /api/v1/accounts/{name}/enabled", chain(http.HandlerFunc(h.SetAccountEnabled)))

	// Events
	mux.Handle("GET /api/v1/events", chain(http.HandlerFunc(h.ListEvents)))

	// Shared data
	mux.Handle("GET /api/v1/live", chain(http.HandlerFunc(h.GetLive)))
}
