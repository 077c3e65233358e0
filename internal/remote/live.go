package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shaiso/Capsula/internal/domain"
)

type liveResponse struct {
	Matches *[]domain.Match `json:"matches"`
}

// LiveSource загружает список live-трансляций. Реализует refresher.Source.
type LiveSource struct {
	client *Client
}

// NewLiveSource создаёт LiveSource поверх Client.
func NewLiveSource(client *Client) *LiveSource {
	return &LiveSource{client: client}
}

// Fetch загружает трансляции. Неполный ответ — ErrMalformedPayload,
// чтобы частичные данные не попали в кэш.
func (s *LiveSource) Fetch(ctx context.Context) (domain.LiveData, error) {
	var resp liveResponse
	if err := s.client.do(ctx, http.MethodGet, pathLive, "", nil, &resp); err != nil {
		return domain.LiveData{}, fmt.Errorf("fetch live: %w", err)
	}
	if resp.Matches == nil {
		return domain.LiveData{}, fmt.Errorf("fetch live: %w: no matches field", ErrMalformedPayload)
	}

	matches := *resp.Matches
	for i, m := range matches {
		if m.ID == "" {
			return domain.LiveData{}, fmt.Errorf("fetch live: %w: match %d has no id", ErrMalformedPayload, i)
		}
	}

	return domain.LiveData{
		Matches:   matches,
		FetchedAt: time.Now(),
	}, nil
}
