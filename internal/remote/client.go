package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Значения по умолчанию.
const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "capsula-farmer"
	maxResponseBody  = 1 << 20 // 1 MB
)

// Пути API удалённого сервиса.
const (
	pathLogin   = "/api/login"
	pathRefresh = "/api/session/refresh"
	pathWatch   = "/api/watch"
	pathLive    = "/api/live"
)

// Client — клиент удалённого сервиса.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	logger    *slog.Logger
}

// Config — конфигурация Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration // таймаут одного запроса (default: 15s)
	UserAgent string

	// HTTPClient — для тестов (опционально).
	HTTPClient *http.Client

	// Logger
	Logger *slog.Logger
}

// New создаёт Client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:   base,
		http:      httpClient,
		userAgent: userAgent,
		logger:    logger.With("component", "remote"),
	}, nil
}

// do выполняет запрос, проверяет статус и декодирует JSON-ответ в out (если out != nil).
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	endpoint := c.baseURL.JoinPath(path).String()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, path, err)
	}
	return nil
}

// expectStatus проверяет код ответа.
func expectStatus(resp *http.Response, expected int) error {
	if resp.StatusCode == expected {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
	return &StatusCodeError{
		Expected: expected,
		Got:      resp.StatusCode,
		URL:      resp.Request.URL.String(),
	}
}
