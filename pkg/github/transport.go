package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// Retry constants.
const (
	initialRetryDelay = 1 * time.Second  // Initial delay for retry attempts
	maxRetryDelay     = 30 * time.Second // Maximum delay cap
)

var errRetryableStatus = errors.New("retryable status")

// retryTransport re-sends requests that were rate limited or hit a server error.
// With zero retries it is a plain pass-through, so failures surface on the first attempt.
type retryTransport struct {
	base     http.RoundTripper
	attempts uint
}

func newRetryTransport(base http.RoundTripper, retries int) http.RoundTripper {
	if retries <= 0 {
		return base
	}
	return &retryTransport{base: base, attempts: uint(retries) + 1}
}

// RoundTrip implements http.RoundTripper.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var attempt uint
	operation := req.Method + " " + sanitizeURL(req.URL)

	err := retryWithBackoff(req.Context(), operation, t.attempts, func() error {
		attempt++
		r := req
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return fmt.Errorf("failed to rewind request body: %w", err)
			}
			r = req.Clone(req.Context())
			r.Body = body
		}

		res, err := t.base.RoundTrip(r)
		if err != nil {
			return err
		}

		retryable := res.StatusCode == http.StatusTooManyRequests ||
			(res.StatusCode >= http.StatusInternalServerError && res.StatusCode < 600)
		if retryable && attempt < t.attempts {
			drainAndCloseBody(res.Body)
			slog.Warn("Retryable response - will retry with backoff", "component", "http", "operation", operation, "status", res.StatusCode)
			return fmt.Errorf("http %d: %w", res.StatusCode, errRetryableStatus)
		}

		// Final attempts hand the response to go-github so the API error is decoded.
		resp = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// retryWithBackoff executes a function with exponential backoff using the codeGROOVE retry library.
func retryWithBackoff(ctx context.Context, operation string, attempts uint, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(initialRetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(initialRetryDelay/4),
		retry.OnRetry(func(n uint, err error) {
			slog.Info("Retry attempt", "component", "retry", "operation", operation, "attempt", n+1, "max_attempts", attempts, "error", err)
		}),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	)
}

// isRetryable reports whether err is a rate limit, server error, or transient network failure.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errRetryableStatus) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "EOF")
}

// sanitizeURL strips the query string before logging.
func sanitizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := *u
	clean.RawQuery = ""
	clean.User = nil
	return clean.String()
}
