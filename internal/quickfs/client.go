// Package quickfs is the fundamentals data provider client.
package quickfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/finview/internal/models"
)

const (
	// DefaultBaseURL is the base URL for the QuickFS API.
	DefaultBaseURL = "https://public-api.quickfs.net/v1"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 2.0

	// DefaultMaxRetries is how many times a 5xx response is retried.
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the fixed pause between attempts.
	DefaultRetryDelay = time.Second

	// maxErrorBody caps how much of an error response is kept.
	maxErrorBody = 512
)

// Client is a QuickFS API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			return
		}
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithRetry sets how many times a 5xx response is retried and the pause between attempts.
func WithRetry(maxRetries int, delay time.Duration) ClientOption {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// NewClient creates a new QuickFS API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:     arbor.NewLogger(),
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), int(DefaultRateLimit)),
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetAllData retrieves the full fundamentals document for a ticker ("AAPL:US").
// A 200 response always yields a payload; missing sections decode as empty.
func (c *Client) GetAllData(ctx context.Context, ticker string) (*models.Payload, error) {
	var envelope models.Envelope
	if err := c.get(ctx, "/data/all-data/"+url.PathEscape(ticker), &envelope); err != nil {
		return nil, err
	}
	if envelope.Data == nil {
		return &models.Payload{}, nil
	}
	return envelope.Data, nil
}

// get performs a GET request, retrying 5xx responses with a fixed delay.
// 404, other non-200 statuses and transport failures end the call immediately.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	attempts := c.maxRetries + 1

	var lastErr *APIError
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			c.logger.Warn().
				Str("endpoint", path).
				Int("attempt", attempt).
				Int("status", lastErr.StatusCode).
				Msg("Retrying QuickFS request after server error")

			select {
			case <-ctx.Done():
				return &TransportError{Endpoint: path, Err: ctx.Err()}
			case <-time.After(c.retryDelay):
			}
		}

		err := c.do(ctx, path, result)
		if err == nil {
			return nil
		}

		apiErr, ok := err.(*APIError)
		if !ok || !isTransient(apiErr.StatusCode) {
			return err
		}
		lastErr = apiErr
	}

	lastErr.Attempts = attempts
	lastErr.Transient = true
	return lastErr
}

// do performs a single request.
func (c *Client) do(ctx context.Context, path string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Endpoint: path, Err: err}
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("url", c.baseURL+path).
		Msg("QuickFS API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("url", c.baseURL+path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("QuickFS API response")

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s", ErrTickerNotFound, strings.TrimPrefix(path, "/data/all-data/"))
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
			Attempts:   1,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		// The body stopped arriving; the connection failed, not the document
		return &TransportError{Endpoint: path, Err: err}
	}

	return nil
}

func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
