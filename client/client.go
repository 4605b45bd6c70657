// Package client provides a typed client for the document question-answering API.
package client

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

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10

	// RequestIDHeader carries a per-request id the server can log.
	RequestIDHeader = "X-Request-ID"
)

// Client is a document API client.
type Client struct {
	baseURL    string
	healthURL  string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
	validate   *validator.Validate
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithAPIKey sends the key as a bearer token.
func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithHealthURL overrides the health endpoint, which lives outside the versioned prefix.
func WithHealthURL(healthURL string) Option {
	return func(c *Client) {
		c.healthURL = healthURL
	}
}

// New creates a new client rooted at baseURL, e.g. http://localhost:8000/api/v1.
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL:   baseURL,
		healthURL: defaultHealthURL(baseURL),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		limiter:  rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// defaultHealthURL strips the path of baseURL and appends /health.
func defaultHealthURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL + "/health"
	}
	u.Path = "/health"
	u.RawQuery = ""
	return u.String()
}

// BaseURL returns the root of the versioned API.
func (c *Client) BaseURL() string { return c.baseURL }

// APIError represents a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsNotFound returns true if err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// newAPIError builds an APIError, unwrapping FastAPI's {"detail": ...} bodies.
func newAPIError(statusCode int, endpoint string, body []byte) *APIError {
	message := strings.TrimSpace(string(body))
	var detail struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && len(detail.Detail) > 0 {
		var text string
		if err := json.Unmarshal(detail.Detail, &text); err == nil {
			message = text
		} else {
			message = string(detail.Detail)
		}
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &APIError{StatusCode: statusCode, Message: message, Endpoint: endpoint}
}

// doJSON sends body (if any) as JSON and decodes the response into result (if any).
func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshaling request")
		}
		reader = bytes.NewReader(payload)
	}
	return c.do(ctx, method, c.baseURL+path, path, "application/json", reader, result)
}

// do performs a request against the API.
func (c *Client) do(ctx context.Context, method, fullURL, endpoint, contentType string, body io.Reader, result any) error {
	// Wait for rate limiter.
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed", "method", method, "endpoint", endpoint, "request_id", requestID, "error", err)
		return errors.Wrap(err, "executing request")
	}
	defer resp.Body.Close()
	c.logger.Debug("api request", "method", method, "endpoint", endpoint, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return newAPIError(resp.StatusCode, endpoint, respBody)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}
