package github

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"shadowpixel-backend/internal/shared/telemetry"
)

// RetryClient is a decorator that retries transient GitHub failures with
// exponential backoff and jitter before delegating to the wrapped UserFetcher.
type RetryClient struct {
	inner      UserFetcher
	maxRetries int
	baseDelay  time.Duration
}

// WithRetry wraps a UserFetcher with retry logic.
// maxRetries is the number of additional attempts after the first failure,
// baseDelay the delay before the first retry, doubled on each subsequent retry.
func WithRetry(inner UserFetcher, maxRetries int, baseDelay time.Duration) *RetryClient {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &RetryClient{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// FetchUser attempts the fetch, retrying on transient errors.
func (r *RetryClient) FetchUser(ctx context.Context, username string) (UserSummary, error) {
	summary, err := r.inner.FetchUser(ctx, username)
	if err == nil {
		return summary, nil
	}
	if !isRetryable(err) {
		return UserSummary{}, err
	}

	lastErr := err
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		delay := r.backoffDelay(attempt, lastErr)

		telemetry.Info("github.retry", map[string]any{
			"username":    username,
			"attempt":     attempt,
			"max_retries": r.maxRetries,
			"delay_ms":    delay.Milliseconds(),
			"error":       lastErr.Error(),
		})

		select {
		case <-ctx.Done():
			return UserSummary{}, fmt.Errorf("github retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		summary, err = r.inner.FetchUser(ctx, username)
		if err == nil {
			return summary, nil
		}
		if !isRetryable(err) {
			return UserSummary{}, err
		}
		lastErr = err
	}

	return UserSummary{}, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// A Retry-After duration from the API takes precedence.
func (r *RetryClient) backoffDelay(attempt int, err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}

	delay := r.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable reports whether the error represents a transient failure.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Rate limits are retryable regardless of status code; GitHub signals
	// quota exhaustion as 403 as well as 429.
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 500 {
			return true
		}
		return false
	}

	// Network and DNS failures.
	return true
}

var _ UserFetcher = (*RetryClient)(nil)
