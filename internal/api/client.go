package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client is the typed HTTP client for the HRMS backend. It holds the default
// Authorization header on behalf of the whole portal: clearing the session
// clears the header here too.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu             sync.RWMutex
	authToken      string
	onUnauthorized func()
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetAuthToken installs the session token sent as the default Authorization
// header on every subsequent request.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

// ClearAuthToken removes the default Authorization header.
func (c *Client) ClearAuthToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = ""
}

// AuthToken returns the currently installed token, empty when unauthenticated.
func (c *Client) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authToken
}

// SetUnauthorizedHook registers a callback fired when an authenticated
// request comes back 401. A rejected token is fatal to the whole session,
// wherever the rejection surfaced. Unauthenticated requests (login) never
// fire it.
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// do performs a JSON request against the backend. A nil payload sends no
// body; a nil target discards the response body. Non-2xx responses are
// returned as *Error with the backend's code/message decoded when present.
func (c *Client) do(ctx context.Context, method, path string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := c.AuthToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseError(resp.StatusCode, bodyBytes)
		c.logger.Warn("backend request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"code", apiErr.Code)

		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			c.mu.RLock()
			hook := c.onUnauthorized
			c.mu.RUnlock()
			if hook != nil {
				hook()
			}
		}
		return apiErr
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
