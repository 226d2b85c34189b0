package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/uuid"
)

const (
	defaultBaseURL = "http://localhost:9000"
	defaultTimeout = 30 * time.Second

	retryAttempts = 3
	retryDelay    = 500 * time.Millisecond
	retryMaxDelay = 5 * time.Second
)

// FallbackErrorMessage is shown to the user when the error payload carries
// no usable text.
const FallbackErrorMessage = "Something went wrong. Please try again."

// ErrUnauthorized is returned when the backend rejects the session token.
var ErrUnauthorized = errors.New("chat API: unauthorized")

// TokenSource supplies the identity token attached to outgoing requests.
// The authentication layer owns token lifecycle; the client only reads it.
type TokenSource interface {
	Token() (string, error)
}

// StaticTokenSource is a TokenSource backed by a fixed string.
type StaticTokenSource string

// Token returns the static token.
func (s StaticTokenSource) Token() (string, error) { return string(s), nil }

// Client is an HTTP client for the chat backend API
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized func()
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTokenSource sets the token source for outgoing requests
func WithTokenSource(ts TokenSource) ClientOption {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithUnauthorizedHook sets a callback invoked once per 401 response, so
// the session layer can invalidate itself.
func WithUnauthorizedHook(fn func()) ClientOption {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// New creates a new chat backend API client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a structured error from the chat backend
type APIError struct {
	Message string              `json:"message"`
	Code    int                 `json:"code"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat API error: %s (code: %d)", e.HumanMessage(), e.Code)
}

// HumanMessage extracts display text from the error payload: the top-level
// message, else the first field error (keys walked in sorted order so the
// choice is deterministic), else a fixed fallback.
func (e *APIError) HumanMessage() string {
	if e.Message != "" {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, msg := range e.Fields[k] {
			if msg != "" {
				return msg
			}
		}
	}
	return FallbackErrorMessage
}

// HumanMessage returns user-displayable text for any error coming out of
// the client.
func HumanMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.HumanMessage()
	}
	return FallbackErrorMessage
}

// ErrorResponse represents an error response body from the API
type ErrorResponse struct {
	Error *APIError `json:"error,omitempty"`
}

func (c *Client) endpoint(path string, params url.Values) string {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// getJSON performs a GET with retries. Reads are idempotent, so transient
// transport failures are retried with backoff; 401 is never retried.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, params), nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
			}
			return c.do(req, out)
		},
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.MaxDelay(retryMaxDelay),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			if errors.Is(err, ErrUnauthorized) {
				return false
			}
			var apiErr *APIError
			// Structured API errors are definitive; only transport-level
			// failures and 5xx responses are worth retrying.
			if errors.As(err, &apiErr) {
				return apiErr.Code >= 500
			}
			return true
		}),
	)
}

// sendJSON performs a non-GET request with a JSON body. Writes are not
// retried: the backend gives no idempotency guarantee for them.
func (c *Client) sendJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, nil), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, out)
}

// do executes an HTTP request and decodes the response
func (c *Client) do(req *http.Request, out interface{}) error {
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("reading session token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return ErrUnauthorized
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == nil {
			return &APIError{Code: resp.StatusCode, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
		}
		if errResp.Error.Code == 0 {
			errResp.Error.Code = resp.StatusCode
		}
		return errResp.Error
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
