package api

import (
	"net/http"
	"strconv"

	"github.com/shaiso/Capsula/internal/domain"
	"github.com/shaiso/Capsula/internal/repo"
)

// ListEvents возвращает события журнала.
// GET /api/v1/events?account=...&kind=...&limit=...&offset=...
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		Unavailable(w, "event journal is not configured")
		return
	}

	q := r.URL.Query()
	filter := repo.EventFilter{
		Account: q.Get("account"),
		Kind:    domain.EventKind(q.Get("kind")),
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit"), 50); err != nil {
		BadRequest(w, "invalid limit")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		BadRequest(w, "invalid offset")
		return
	}

	events, err := h.events.List(r.Context(), filter)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	// total — по всему журналу под фильтром, не размер страницы
	total, err := h.events.Count(r.Context(), filter)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	result := make([]EventResponse, len(events))
	for i, ev := range events {
		result[i] = EventFromDomain(ev)
	}

	List(w, result, total)
}

// GetLive возвращает текущие общие данные.
// GET /api/v1/live
func (h *Handler) GetLive(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		Unavailable(w, "live data is not configured")
		return
	}

	snap, ok := h.live.Load()
	if !ok {
		Unavailable(w, "live data not fetched yet")
		return
	}

	matches := snap.Value.Matches
	if matches == nil {
		matches = []domain.Match{}
	}

	Success(w, LiveResponse{
		Version:   snap.Version,
		UpdatedAt: snap.UpdatedAt,
		FetchedAt: snap.Value.FetchedAt,
		Matches:   matches,
	})
}

// intParam парсит неотрицательное целое из query. Пустая строка — def.
func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
