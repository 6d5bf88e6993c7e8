package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Error variables for HTTP client errors
var (
	// ErrMaxRetriesExceeded is returned when all retry attempts have failed
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	// ErrRequestTimeout is returned when a request times out
	ErrRequestTimeout = errors.New("request timeout")
)

// DefaultUserAgent identifies bvc to package indexes
const DefaultUserAgent = "bvc (+https://github.com/obentoo/bvc)"

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int
	// BaseDelay is the initial delay before first retry (default: 1s)
	BaseDelay time.Duration
	// MaxDelay caps both the backoff and a server's Retry-After (default: 4s)
	MaxDelay time.Duration
}

// DefaultRetryConfig waits 1s, 2s then 4s between attempts.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   4 * time.Second,
	}
}

// RetryableHTTPClient GETs index pages, retrying transient failures and
// pacing requests shared by all fetch workers. Deadlines come from the
// caller's context.
type RetryableHTTPClient struct {
	client    *http.Client
	retry     RetryConfig
	limiter   *rate.Limiter
	userAgent string
	wait      func(context.Context, time.Duration) error
	retries   atomic.Int64
}

// ClientOption is a functional option for configuring RetryableHTTPClient
type ClientOption func(*RetryableHTTPClient)

// WithRetryConfig sets the retry policy
func WithRetryConfig(config RetryConfig) ClientOption {
	return func(c *RetryableHTTPClient) {
		c.retry = config
	}
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *RetryableHTTPClient) {
		c.client = client
	}
}

// WithRequestsPerSecond paces outgoing requests across all goroutines.
// A value <= 0 disables pacing.
func WithRequestsPerSecond(rps float64) ClientOption {
	return func(c *RetryableHTTPClient) {
		limit := rate.Inf
		if rps > 0 {
			limit = rate.Limit(rps)
		}
		c.limiter = rate.NewLimiter(limit, 1)
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(userAgent string) ClientOption {
	return func(c *RetryableHTTPClient) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithDelayFunc replaces the wait between attempts (useful for testing)
func WithDelayFunc(fn func(context.Context, time.Duration) error) ClientOption {
	return func(c *RetryableHTTPClient) {
		c.wait = fn
	}
}

// NewRetryableHTTPClient creates a new HTTP client with retry support.
func NewRetryableHTTPClient(opts ...ClientOption) *RetryableHTTPClient {
	c := &RetryableHTTPClient{
		client:    &http.Client{},
		retry:     DefaultRetryConfig(),
		limiter:   rate.NewLimiter(rate.Inf, 1),
		userAgent: DefaultUserAgent,
		wait:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retries returns how many attempts were repeated since creation
func (c *RetryableHTTPClient) Retries() int64 {
	return c.retries.Load()
}

// Get performs a GET request. Network errors, 5xx and 429 responses are
// retried; any other response, 404 included, is returned to the caller.
func (c *RetryableHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	var (
		lastErr    error
		retryAfter time.Duration
	)
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			c.retries.Add(1)
			if err := c.wait(ctx, c.delay(attempt, retryAfter)); err != nil {
				return nil, timeoutErr(err)
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, timeoutErr(err)
		}

		resp, err := c.client.Do(req.Clone(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return nil, timeoutErr(ctx.Err())
			}
			lastErr, retryAfter = timeoutErr(err), 0
			continue
		}

		if !retryable(resp.StatusCode) {
			return resp, nil
		}
		retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("server answered %s", resp.Status)
	}

	return nil, fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr)
}

// delay is the wait before the given attempt: the server's Retry-After when
// it sent one, else baseDelay * 2^(attempt-1). Both are capped by MaxDelay.
func (c *RetryableHTTPClient) delay(attempt int, retryAfter time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := retryAfter
	if d <= 0 {
		d = c.retry.BaseDelay << (attempt - 1)
	}
	return min(d, c.retry.MaxDelay)
}

func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// parseRetryAfter reads the delay-seconds form of a Retry-After header
func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// timeoutErr wraps deadline expiry and network timeouts in ErrRequestTimeout
func timeoutErr(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrRequestTimeout, err)
	}
	return err
}
