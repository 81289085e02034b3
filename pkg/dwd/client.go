// Package dwd provides the transport shared by the DWD open data queries.
// Every download goes through Client, which applies a circuit breaker,
// retries 429/5xx responses with backoff and maps failures to *Error.
package dwd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	DefaultBaseURL           = "https://opendata.dwd.de/weather/local_forecasts/mos"
	DefaultStationCatalogURL = "https://www.dwd.de/DE/leistungen/met_verfahren_mosmix/mosmix_stationskatalog.cfg?view=nasPublication&nn=16102"
	DefaultUserAgent         = "mosmix-example"
)

// HTTPClient interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryPolicy configures retries of 429 and 5xx responses
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy returns the retry policy used by NewClient
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		MinWait:    500 * time.Millisecond,
		MaxWait:    10 * time.Second,
	}
}

// Client downloads files from DWD open data
type Client struct {
	httpClient  HTTPClient
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy RetryPolicy
	userAgent   string
	logger      *slog.Logger
	sleepFn     func(context.Context, time.Duration) error
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c HTTPClient) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithRetryPolicy replaces the default retry policy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(cl *Client) {
		cl.retryPolicy = p
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithSleepFunc overrides the wait between retries. Intended for tests.
func WithSleepFunc(fn func(context.Context, time.Duration) error) Option {
	return func(cl *Client) {
		cl.sleepFn = fn
	}
}

// NewClient creates a new DWD download client
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		retryPolicy: DefaultRetryPolicy(),
		userAgent:   DefaultUserAgent,
		logger:      slog.Default(),
		sleepFn:     sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "dwd-opendata",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return c
}

// Get downloads url and returns the open response body. The caller must
// close it. Any final status other than 200 is returned as *Error.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	var lastResp *http.Response
	var lastErr error

	maxAttempts := 1 + c.retryPolicy.MaxRetries
	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &Error{Code: ErrCodeInvalidRequest, Message: "failed to create request", URL: url, Err: err}
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.httpClient.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("upstream returned %d", r.StatusCode)
			}
			return r, nil
		})

		if err == nil {
			if resp.StatusCode != http.StatusOK {
				return nil, c.statusError(resp, url)
			}
			c.logger.DebugContext(ctx, "DWD request successful", "status", resp.StatusCode, "url", url)
			return resp.Body, nil
		}

		// Retry-After is read before the failed body is released
		var wait time.Duration
		if attempt < maxAttempts-1 {
			wait = c.computeBackoff(attempt, resp)
		}
		discardBody(resp)
		lastResp, lastErr = resp, err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		if attempt < maxAttempts-1 {
			c.logger.WarnContext(ctx, "DWD request failed, retrying",
				"url", url,
				"attempt", attempt+1,
				"wait", wait,
				"error", err,
			)
			if err := c.sleepFn(ctx, wait); err != nil {
				lastErr = err
				break
			}
		}
	}

	return nil, c.mapError(lastResp, lastErr, url)
}

// computeBackoff honours Retry-After, otherwise uses exponential backoff
// with jitter clamped to [MinWait, MaxWait]
func (c *Client) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				return min(time.Duration(seconds)*time.Second, c.retryPolicy.MaxWait)
			}
			if t, err := http.ParseTime(retryAfter); err == nil {
				wait := time.Until(t)
				if wait <= 0 {
					return c.retryPolicy.MinWait
				}
				return min(wait, c.retryPolicy.MaxWait)
			}
		}
	}

	base := float64(c.retryPolicy.MinWait) * math.Pow(2, float64(attempt))
	base = math.Min(base, float64(c.retryPolicy.MaxWait))

	minWait := float64(c.retryPolicy.MinWait)
	if base <= minWait {
		return c.retryPolicy.MinWait
	}
	return time.Duration(minWait + rand.Float64()*(base-minWait))
}

// discardBody drains and closes the body of a failed attempt so the
// connection can be reused. The status code stays readable for mapError.
func discardBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

func (c *Client) statusError(resp *http.Response, url string) *Error {
	defer resp.Body.Close()
	// Drain a bounded amount so the connection can be reused
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	code := ErrCodeUpstreamFailure
	if resp.StatusCode == http.StatusNotFound {
		code = ErrCodeNotFound
	}
	return &Error{
		Code:       code,
		Message:    fmt.Sprintf("DWD returned status %d: %s", resp.StatusCode, resp.Status),
		URL:        url,
		StatusCode: resp.StatusCode,
	}
}

func (c *Client) mapError(resp *http.Response, err error, url string) *Error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &Error{Code: ErrCodeUpstreamUnavailable, Message: "circuit breaker is open", URL: url, Err: err}
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return &Error{Code: ErrCodeUpstreamRateLimited, Message: "rate limit exceeded", URL: url, StatusCode: resp.StatusCode, Err: err}
		case resp.StatusCode >= 500:
			return &Error{
				Code:       ErrCodeUpstreamUnavailable,
				Message:    fmt.Sprintf("DWD returned %d after retries", resp.StatusCode),
				URL:        url,
				StatusCode: resp.StatusCode,
				Err:        err,
			}
		}
	}

	return &Error{Code: ErrCodeUpstreamFailure, Message: "request failed", URL: url, Err: err}
}

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
