package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/shaiso/Capsula/internal/domain"
	"github.com/shaiso/Capsula/internal/worker"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (t tokens) valid() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}

type watchRequest struct {
	MatchID string `json:"match_id"`
	League  string `json:"league,omitempty"`
}

// Login входит в сервис и возвращает сессию аккаунта.
func (c *Client) Login(ctx context.Context, account domain.Account) (worker.Session, error) {
	var tok tokens
	err := c.do(ctx, http.MethodPost, pathLogin, "", credentials{
		Username: account.Name,
		Password: account.Password,
	}, &tok)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !tok.valid() {
		return nil, fmt.Errorf("login: %w: missing tokens", ErrMalformedPayload)
	}

	return &Session{
		client: c,
		logger: c.logger.With("account", account.ID()),
		tokens: tok,
	}, nil
}

// Session — залогиненная сессия одного аккаунта.
type Session struct {
	client *Client
	logger *slog.Logger

	mu     sync.Mutex
	tokens tokens
}

func (s *Session) current() tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// Refresh обновляет токены по refresh-токену.
func (s *Session) Refresh(ctx context.Context) error {
	var tok tokens
	if err := s.client.do(ctx, http.MethodPost, pathRefresh, s.current().RefreshToken, nil, &tok); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	if !tok.valid() {
		return fmt.Errorf("refresh: %w: missing tokens", ErrMalformedPayload)
	}

	s.mu.Lock()
	s.tokens = tok
	s.mu.Unlock()
	return nil
}

// Watch отправляет heartbeat для каждой трансляции и возвращает, сколько принято.
//
// Unrecoverable ответ прерывает обход сразу. Временные ошибки по отдельным
// трансляциям только логируются, если хотя бы одна трансляция принята.
func (s *Session) Watch(ctx context.Context, matches []domain.Match) (int, error) {
	access := s.current().AccessToken

	var watched int
	var lastErr error
	for _, m := range matches {
		err := s.client.do(ctx, http.MethodPost, pathWatch, access, watchRequest{MatchID: m.ID, League: m.League}, nil)
		if err == nil {
			watched++
			continue
		}
		if ctx.Err() != nil {
			return watched, ctx.Err()
		}
		if worker.IsUnrecoverable(err) {
			return watched, fmt.Errorf("watch %s: %w", m.ID, err)
		}

		s.logger.Debug("watch heartbeat failed", "match_id", m.ID, "error", err)
		lastErr = err
	}

	if watched == 0 && lastErr != nil {
		return 0, fmt.Errorf("watch: %w", lastErr)
	}
	return watched, nil
}
