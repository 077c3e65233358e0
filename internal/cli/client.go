package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// AccountResponse — состояние аккаунта из API.
type AccountResponse struct {
	Name            string `json:"name"`
	Status          string `json:"status"`
	Enabled         bool   `json:"enabled"`
	FailedLogins    int    `json:"failed_logins"`
	Live            bool   `json:"live"`
	StartedAt       string `json:"started_at,omitempty"`
	NextStart       string `json:"next_start,omitempty"`
	RestartFailures int    `json:"restart_failures"`
	UpdatedAt       string `json:"updated_at"`
}

// EventResponse — событие журнала из API.
type EventResponse struct {
	ID           string `json:"id"`
	Account      string `json:"account"`
	Kind         string `json:"kind"`
	Message      string `json:"message,omitempty"`
	FailedLogins int    `json:"failed_logins"`
	NextStart    string `json:"next_start,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// MatchResponse — матч из общих данных.
type MatchResponse struct {
	ID     string `json:"id"`
	League string `json:"league"`
	Title  string `json:"title,omitempty"`
}

// LiveResponse — текущая версия общих данных.
type LiveResponse struct {
	Version   uint64          `json:"version"`
	UpdatedAt string          `json:"updated_at"`
	FetchedAt string          `json:"fetched_at"`
	Matches   []MatchResponse `json:"matches"`
}

// ListEventsOpts — параметры фильтрации событий.
type ListEventsOpts struct {
	Account string
	Kind    string
	Limit   int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул сервер.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для Capsula API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Accounts ---

// ListAccounts возвращает все аккаунты.
func (c *Client) ListAccounts(ctx context.Context) ([]AccountResponse, error) {
	var accounts []AccountResponse
	err := c.list(ctx, "/api/v1/accounts", nil, &accounts)
	return accounts, err
}

// GetAccount возвращает аккаунт по имени.
func (c *Client) GetAccount(ctx context.Context, name string) (*AccountResponse, error) {
	var account AccountResponse
	err := c.doData(ctx, http.MethodGet, "/api/v1/accounts/"+url.PathEscape(name), nil, &account)
	return &account, err
}

// SetEnabled включает или выключает аккаунт.
func (c *Client) SetEnabled(ctx context.Context, name string, enabled bool) (*AccountResponse, error) {
	var account AccountResponse
	body := map[string]bool{"enabled": enabled}
	err := c.doData(ctx, http.MethodPut, "/api/v1/accounts/"+url.PathEscape(name)+"/enabled", body, &account)
	return &account, err
}

// --- Events ---

// ListEvents возвращает события журнала.
func (c *Client) ListEvents(ctx context.Context, opts ListEventsOpts) ([]EventResponse, error) {
	params := url.Values{}
	if opts.Account != "" {
		params.Set("account", opts.Account)
	}
	if opts.Kind != "" {
		params.Set("kind", opts.Kind)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var events []EventResponse
	err := c.list(ctx, "/api/v1/events", params, &events)
	return events, err
}

// --- Live ---

// GetLive возвращает текущие общие данные.
func (c *Client) GetLive(ctx context.Context) (*LiveResponse, error) {
	var live LiveResponse
	err := c.doData(ctx, http.MethodGet, "/api/v1/live", nil, &live)
	return &live, err
}

// --- HTTP helpers ---

func (c *Client) list(ctx context.Context, path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}

	return apiErr
}
