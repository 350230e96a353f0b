// Package fd provides the HTTP client for the football-data.org v4 API.
//
// football-data.org uses X-Auth-Token header auth and date-range filtered
// competition endpoints. Rate limiting is handled via a token bucket limiter
// (the free tier allows 10 requests per minute).
package fd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.football-data.org/v4"

// Match statuses this service filters by.
const (
	StatusScheduled = "SCHEDULED"
	StatusFinished  = "FINISHED"
)

// Client is the HTTP client for football-data.org endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a football-data.org client with rate limiting.
func NewClient(baseURL, apiToken string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiToken:   apiToken,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// Match is one match object from the provider.
type Match struct {
	ID       int64     `json:"id"`
	UTCDate  time.Time `json:"utcDate"`
	Status   string    `json:"status"`
	HomeTeam Team      `json:"homeTeam"`
	AwayTeam Team      `json:"awayTeam"`
	Score    Score     `json:"score"`
}

// Team carries the team name (the only field this service reads).
type Team struct {
	Name string `json:"name"`
}

// Score holds the full-time result; fields are nil until the match finishes.
type Score struct {
	FullTime ScorePair `json:"fullTime"`
}

// ScorePair is a nullable home/away score pair.
type ScorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// matchesResponse is the competition matches envelope. ErrorCode and Message
// are set on provider-error payloads, which can arrive with HTTP 200.
type matchesResponse struct {
	Matches   []Match `json:"matches"`
	ErrorCode int     `json:"errorCode"`
	Message   string  `json:"message"`
}

// Matches fetches matches for a competition in the inclusive [dateFrom,
// dateTo] range. status is optional ("SCHEDULED" or "FINISHED"); empty means
// all statuses. Dates are formatted YYYY-MM-DD as the API requires.
func (c *Client) Matches(ctx context.Context, competition string, dateFrom, dateTo time.Time, status string) ([]Match, error) {
	params := url.Values{}
	params.Set("dateFrom", dateFrom.Format("2006-01-02"))
	params.Set("dateTo", dateTo.Format("2006-01-02"))
	if status != "" {
		params.Set("status", status)
	}

	path := "/competitions/" + competition + "/matches"
	resp, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

// get performs a rate-limited GET request to a football-data.org endpoint.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*matchesResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Auth-Token", c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("football-data %s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}

	var result matchesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// The provider signals some errors inside a 200 body.
	if result.ErrorCode != 0 {
		return nil, fmt.Errorf("football-data error %d: %s", result.ErrorCode, result.Message)
	}

	return &result, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
