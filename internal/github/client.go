package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultBaseURL   = "https://api.github.com"
	defaultRepoLimit = 10
	maxErrorBodySize = 4 << 10
)

var (
	// ErrUserNotFound indicates the GitHub username does not exist.
	ErrUserNotFound = errors.New("github user not found")
	// ErrRateLimited indicates GitHub refused the request due to rate limiting.
	ErrRateLimited = errors.New("github rate limited")
)

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	StatusCode int
	RetryAfter time.Duration
	Message    string

	sentinel error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github api status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github api status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.sentinel
}

// Profile is the public profile of a GitHub user.
type Profile struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Bio         string `json:"bio"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Blog        string `json:"blog"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	HTMLURL     string `json:"html_url"`
	AvatarURL   string `json:"avatar_url"`
}

// Repository is a single public repository of a GitHub user.
type Repository struct {
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	HTMLURL     string    `json:"html_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserSummary bundles a profile with its most recently updated repositories.
type UserSummary struct {
	Profile      Profile      `json:"profile"`
	Repositories []Repository `json:"repositories"`
}

// UserFetcher fetches a GitHub user summary.
type UserFetcher interface {
	FetchUser(ctx context.Context, username string) (UserSummary, error)
}

// Client talks to the GitHub REST API.
type Client struct {
	baseURL    string
	repoLimit  int
	httpClient *http.Client
}

// NewClient builds a GitHub API client. When token is non-empty, requests are
// authenticated via a bearer token, which raises the rate-limit quota.
func NewClient(baseURL, token string, repoLimit int) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if repoLimit <= 0 {
		repoLimit = defaultRepoLimit
	}

	httpClient := &http.Client{Timeout: 15 * time.Second}
	if strings.TrimSpace(token) != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: strings.TrimSpace(token)})
		httpClient = oauth2.NewClient(context.Background(), src)
		httpClient.Timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		repoLimit:  repoLimit,
		httpClient: httpClient,
	}
}

// FetchUser fetches the user's profile and recent repositories.
func (c *Client) FetchUser(ctx context.Context, username string) (UserSummary, error) {
	var profile Profile
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(username), &profile); err != nil {
		return UserSummary{}, fmt.Errorf("fetch github user %s: %w", username, err)
	}

	reposPath := fmt.Sprintf("/users/%s/repos?sort=updated&per_page=%d", url.PathEscape(username), c.repoLimit)
	var repos []Repository
	if err := c.getJSON(ctx, reposPath, &repos); err != nil {
		return UserSummary{}, fmt.Errorf("fetch github repos %s: %w", username, err)
	}

	return UserSummary{Profile: profile, Repositories: repos}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode github response: %w", err)
	}
	return nil
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		Message:    readErrorMessage(resp.Body),
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		apiErr.sentinel = ErrUserNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr.sentinel = ErrRateLimited
	case resp.StatusCode == http.StatusForbidden && rateLimitExhausted(resp.Header):
		apiErr.sentinel = ErrRateLimited
	}
	return apiErr
}

// GitHub reports primary rate-limit exhaustion as 403 with X-RateLimit-Remaining: 0.
func rateLimitExhausted(h http.Header) bool {
	return strings.TrimSpace(h.Get("X-RateLimit-Remaining")) == "0"
}

func parseRetryAfter(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}

func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	if err != nil {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(raw))
}

var _ UserFetcher = (*Client)(nil)
