package github

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

type scriptedFetcher struct {
	calls   int
	results []error
	summary UserSummary
}

func (f *scriptedFetcher) FetchUser(ctx context.Context, username string) (UserSummary, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	if err := f.results[idx]; err != nil {
		return UserSummary{}, err
	}
	return f.summary, nil
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	fetcher := &scriptedFetcher{
		results: []error{
			&APIError{StatusCode: http.StatusServiceUnavailable},
			nil,
		},
		summary: UserSummary{Profile: Profile{Login: "octocat"}},
	}

	client := WithRetry(fetcher, 2, time.Millisecond)
	summary, err := client.FetchUser(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if summary.Profile.Login != "octocat" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if fetcher.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", fetcher.calls)
	}
}

func TestRetryDoesNotRetryUserNotFound(t *testing.T) {
	fetcher := &scriptedFetcher{
		results: []error{
			&APIError{StatusCode: http.StatusNotFound, sentinel: ErrUserNotFound},
		},
	}

	client := WithRetry(fetcher, 3, time.Millisecond)
	_, err := client.FetchUser(context.Background(), "ghost-user")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected 1 call, got %d", fetcher.calls)
	}
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	fetcher := &scriptedFetcher{
		results: []error{
			&APIError{StatusCode: http.StatusTooManyRequests, sentinel: ErrRateLimited},
		},
	}

	client := WithRetry(fetcher, 2, time.Millisecond)
	_, err := client.FetchUser(context.Background(), "octocat")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if fetcher.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", fetcher.calls)
	}
}

func TestRetryForbiddenRateLimit(t *testing.T) {
	fetcher := &scriptedFetcher{
		results: []error{
			&APIError{StatusCode: http.StatusForbidden, RetryAfter: time.Millisecond, sentinel: ErrRateLimited},
			nil,
		},
		summary: UserSummary{Profile: Profile{Login: "octocat"}},
	}

	client := WithRetry(fetcher, 2, time.Minute)
	summary, err := client.FetchUser(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if summary.Profile.Login != "octocat" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if fetcher.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", fetcher.calls)
	}

	delay := client.backoffDelay(1, &APIError{StatusCode: http.StatusForbidden, RetryAfter: 9 * time.Second, sentinel: ErrRateLimited})
	if delay != 9*time.Second {
		t.Fatalf("expected Retry-After to win for 403 rate limit, got %s", delay)
	}
}

func TestRetryDoesNotRetryPlainForbidden(t *testing.T) {
	fetcher := &scriptedFetcher{
		results: []error{
			&APIError{StatusCode: http.StatusForbidden},
		},
	}

	client := WithRetry(fetcher, 3, time.Millisecond)
	_, err := client.FetchUser(context.Background(), "octocat")
	if err == nil {
		t.Fatalf("expected error")
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected 1 call, got %d", fetcher.calls)
	}
}

func TestRetryHonorsRetryAfter(t *testing.T) {
	client := WithRetry(nil, 2, time.Second)
	delay := client.backoffDelay(1, &APIError{StatusCode: 429, RetryAfter: 7 * time.Second})
	if delay != 7*time.Second {
		t.Fatalf("expected Retry-After to win, got %s", delay)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	fetcher := &scriptedFetcher{
		results: []error{
			&APIError{StatusCode: http.StatusInternalServerError},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := WithRetry(fetcher, 5, time.Minute)
	_, err := client.FetchUser(ctx, "octocat")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", fetcher.calls)
	}
}
