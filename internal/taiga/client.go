// Package taiga is a small client for the Taiga REST API: authentication,
// projects, statuses, user stories and tasks.
package taiga

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jorge-barreto/taigagen/internal/logging"
)

const (
	// DefaultBaseURL is the hosted Taiga API.
	DefaultBaseURL = "https://api.taiga.io/api/v1"

	// WebURL is the hosted Taiga web UI, used to link to projects.
	WebURL = "https://tree.taiga.io"

	defaultTimeout = 30 * time.Second
)

// APIError is a non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("taiga %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Client talks to one Taiga instance on behalf of one Session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	logger     *logging.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithClock sets the clock used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithLogger records every request in the debug log.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client. An empty baseURL means DefaultBaseURL.
func New(baseURL string, creds Credentials, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.NopLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.session = NewSession(creds, c.now)
	return c
}

// Session exposes the client's session.
func (c *Client) Session() *Session {
	return c.session
}

// ProjectURL is the web link for a project slug.
func ProjectURL(slug string) string {
	return WebURL + "/project/" + slug + "/"
}

type authRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	AuthToken string `json:"auth_token"`
	ID        int    `json:"id"`
}

// Authenticate exchanges the session credentials for a bearer token.
func (c *Client) Authenticate(ctx context.Context) error {
	creds := c.session.Credentials
	if !creds.Complete() {
		return ErrMissingCredentials
	}
	var resp authResponse
	body := authRequest{Type: "normal", Username: creds.Username, Password: creds.Password}
	if err := c.send(ctx, http.MethodPost, "/auth", nil, body, &resp, false); err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}
	if resp.AuthToken == "" {
		return fmt.Errorf("authenticating: response carried no auth_token")
	}
	c.session.store(resp.AuthToken, resp.ID)
	c.logger.Info("authenticated", "user_id", resp.ID, "expires_at", c.session.ExpiresAt())
	return nil
}

// ensureToken authenticates when the session holds no live token.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.session.Valid() {
		return nil
	}
	return c.Authenticate(ctx)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.ensureToken(ctx); err != nil {
		return err
	}
	return c.send(ctx, method, path, query, body, out, true)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any, authed bool) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.session.Token())
	}
	if method == http.MethodGet {
		req.Header.Set("x-disable-pagination", "True")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", method, "path", path, "error", err.Error())
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// errorMessage pulls _error_message out of a Taiga error body, falling back
// to the (shortened) raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"_error_message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:197] + "..."
	}
	if msg == "" {
		msg = "empty response"
	}
	return msg
}
