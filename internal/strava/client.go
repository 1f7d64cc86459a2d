// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package strava

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/segmenthunter/internal/config"
	"github.com/tomtom215/segmenthunter/internal/logging"
	"github.com/tomtom215/segmenthunter/internal/metrics"
	"github.com/tomtom215/segmenthunter/internal/models"
)

const (
	// DefaultBaseURL is the Strava REST API root.
	DefaultBaseURL = "https://www.strava.com/api/v3"

	// DefaultOAuthURL is the token endpoint for the refresh grant.
	DefaultOAuthURL = "https://www.strava.com/api/v3/oauth/token"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 32 << 20

	// maxErrorBody bounds the response excerpt kept in APIError.
	maxErrorBody = 512

	endpointExplore = "segments_explore"
	endpointOAuth   = "oauth_token"
)

// Config holds client settings.
type Config struct {
	BaseURL  string
	OAuthURL string
	Timeout  time.Duration

	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int
}

// ConfigFrom converts the application config section.
func ConfigFrom(c *config.StravaConfig) Config {
	return Config{
		BaseURL:   c.BaseURL,
		OAuthURL:  c.OAuthURL,
		Timeout:   c.Timeout,
		RateLimit: c.RateLimit,
		RateBurst: c.RateBurst,
	}
}

// Client calls the Strava API.
type Client struct {
	baseURL    string
	oauthURL   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client. Empty URLs fall back to the public Strava endpoints.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.OAuthURL == "" {
		cfg.OAuthURL = DefaultOAuthURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		oauthURL:   cfg.OAuthURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// ExploreSegments returns the raw explore document for bounds
// ("sw_lat,sw_lon,ne_lat,ne_lon"). Numbers are kept as json.Number.
func (c *Client) ExploreSegments(ctx context.Context, accessToken, bounds, activityType string) (map[string]interface{}, error) {
	query := url.Values{}
	query.Set("bounds", bounds)
	if activityType != "" {
		query.Set("activity_type", activityType)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/segments/explore?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := c.do(req, endpointExplore)
	if err != nil {
		return nil, err
	}

	var doc map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode explore response: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decode explore response: not a JSON object")
	}
	return doc, nil
}

// RefreshToken exchanges a refresh token for a new credential.
func (c *Client) RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*models.Credential, error) {
	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, endpointOAuth)
	if err != nil {
		return nil, err
	}

	var cred models.Credential
	if err := json.Unmarshal(body, &cred); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if cred.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}
	return &cred, nil
}

// do waits for the limiter, executes req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordStravaRequest(endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	metrics.RecordStravaRequest(endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Body:       logging.SanitizeBody(string(body), maxErrorBody),
		}
		logging.Ctx(req.Context()).Debug().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("Strava request failed")
		return nil, apiErr
	}

	return body, nil
}
