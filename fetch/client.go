// Package fetch provides the rate-limited, retrying HTTP transport used by
// the crawl orchestrator. A single client serializes politeness across all
// concurrent scrape jobs: a global semaphore caps in-flight requests and a
// shared limiter enforces the minimum inter-request interval.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"openjuris/types"
)

// ErrorKind separates errors the caller may retry later from terminal ones.
type ErrorKind int

const (
	// Transient covers network failures and 5xx/429 responses. The client
	// retries these itself; a Transient error surfaces only when a caller
	// passes a context that is cancelled mid-retry.
	Transient ErrorKind = iota
	// Permanent covers non-retryable status codes and exhausted retries.
	Permanent
)

// Error is the failure type for a logical fetch.
type Error struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	kind := "permanent"
	if e.Kind == Transient {
		kind = "transient"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s error: status %d", e.URL, kind, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s error: %v", e.URL, kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsPermanent reports whether err is a fetch error that will not succeed on
// retry.
func IsPermanent(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == Permanent
}

// jitterFraction is the spread applied around the inter-request interval to
// avoid synchronized bursts against a single host.
const jitterFraction = 0.2

// Client fetches URLs politely: bounded concurrency, minimum inter-request
// interval with random jitter, and exponential-backoff retries.
type Client struct {
	http        *http.Client
	limiter     *rate.Limiter
	sem         *semaphore.Weighted
	interval    time.Duration
	timeout     time.Duration
	maxRetries  int
	backoffBase float64
	userAgent   string
}

func NewClient(cfg types.Config) *Client {
	concurrency := cfg.FetchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		// Per-attempt timeout is applied via context; the http.Client itself
		// carries no timeout so retries are not charged for earlier attempts.
		http:        &http.Client{},
		limiter:     rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
		sem:         semaphore.NewWeighted(int64(concurrency)),
		interval:    cfg.RequestInterval,
		timeout:     cfg.RequestTimeout,
		maxRetries:  maxRetries,
		backoffBase: cfg.RetryBackoffBase,
		userAgent:   cfg.UserAgent,
	}
}

// Fetch retrieves url and returns the response body. Transport errors and
// retryable status codes are retried up to the configured limit with
// backoffBase^attempt seconds between attempts; the final failure is
// surfaced as a Permanent error.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, &Error{Kind: Transient, URL: url, Err: err}
	}
	defer c.sem.Release(1)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: Transient, URL: url, Err: err}
	}
	if err := sleepCtx(ctx, c.jitter()); err != nil {
		return nil, &Error{Kind: Transient, URL: url, Err: err}
	}

	var lastErr *Error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(c.backoffBase, float64(attempt))) * time.Second
			if err := sleepCtx(ctx, backoff); err != nil {
				return nil, &Error{Kind: Transient, URL: url, Err: err}
			}
		}

		body, ferr := c.attempt(ctx, url)
		if ferr == nil {
			return body, nil
		}
		if ferr.Kind == Permanent {
			return nil, ferr
		}
		lastErr = ferr
	}

	// Retries exhausted: the failure is terminal for this job.
	lastErr.Kind = Permanent
	return nil, lastErr
}

// attempt performs one HTTP round trip with its own timeout.
func (c *Client) attempt(ctx context.Context, url string) ([]byte, *Error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: Permanent, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: Transient, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		kind := Permanent
		if retryable(resp.StatusCode) {
			kind = Transient
		}
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{Kind: kind, URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: Transient, URL: url, Err: err}
	}
	return body, nil
}

func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// jitter returns a random delay in [0, 2*jitterFraction*interval), centering
// the effective spacing on interval*(1 + jitterFraction).
func (c *Client) jitter() time.Duration {
	if c.interval <= 0 {
		return 0
	}
	spread := float64(c.interval) * jitterFraction
	return time.Duration(rand.Float64() * 2 * spread)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
