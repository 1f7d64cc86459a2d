// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package strava

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/segmenthunter/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		BaseURL:  server.URL,
		OAuthURL: server.URL + "/oauth/token",
		Timeout:  5 * time.Second,
	})
}

func TestExploreSegments(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/segments/explore" {
			t.Errorf("Expected path /segments/explore, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("bounds"); got != "0.0,0.0,1.0,1.0" {
			t.Errorf("Expected bounds 0.0,0.0,1.0,1.0, got %q", got)
		}
		if got := r.URL.Query().Get("activity_type"); got != "riding" {
			t.Errorf("Expected activity_type riding, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Expected bearer auth, got %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Expected Accept application/json, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"segments":[{"id":9007199254740993,"name":"Hill"}]}`))
	})

	cell := models.Cell{ID: 1, NELatitude: 1, NELongitude: 1}
	doc, err := client.ExploreSegments(context.Background(), "tok-123", cell.BoundsParam(), "riding")
	if err != nil {
		t.Fatalf("ExploreSegments() error = %v", err)
	}

	segments, ok := doc["segments"].([]interface{})
	if !ok || len(segments) != 1 {
		t.Fatalf("Expected one segment, got %v", doc["segments"])
	}
	seg := segments[0].(map[string]interface{})

	// Ids beyond 2^53 must survive decoding.
	id, ok := seg["id"].(json.Number)
	if !ok {
		t.Fatalf("Expected json.Number id, got %T", seg["id"])
	}
	if id.String() != "9007199254740993" {
		t.Errorf("Expected id 9007199254740993, got %s", id)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(out), `"id":9007199254740993`) {
		t.Errorf("Expected id to re-encode unchanged, got %s", out)
	}
}

func TestExploreSegmentsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		rateLimit  bool
		unauth     bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"message":"Rate Limit Exceeded"}`, 429, true, false},
		{"unauthorized", http.StatusUnauthorized, `{"message":"Authorization Error"}`, 401, false, true},
		{"server error", http.StatusInternalServerError, `oops`, 500, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.ExploreSegments(context.Background(), "tok", "0,0,1,1", "riding")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, apiErr.StatusCode)
			}
			if apiErr.Body != tt.body {
				t.Errorf("Expected body %q, got %q", tt.body, apiErr.Body)
			}
			if apiErr.RateLimited() != tt.rateLimit {
				t.Errorf("RateLimited() = %v, want %v", apiErr.RateLimited(), tt.rateLimit)
			}
			if apiErr.Unauthorized() != tt.unauth {
				t.Errorf("Unauthorized() = %v, want %v", apiErr.Unauthorized(), tt.unauth)
			}
		})
	}
}

func TestExploreSegmentsMalformedBody(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"segments": [`))
	})

	if _, err := client.ExploreSegments(context.Background(), "tok", "0,0,1,1", "riding"); err == nil {
		t.Error("Expected error for malformed body")
	}
}

func TestExploreSegmentsTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})

	start := time.Now()
	if _, err := client.ExploreSegments(context.Background(), "tok", "0,0,1,1", "riding"); err == nil {
		t.Fatal("Expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Expected request to time out quickly, took %v", elapsed)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	client.limiter.SetLimit(0.001)
	client.limiter.SetBurst(1)

	if _, err := client.ExploreSegments(context.Background(), "tok", "0,0,1,1", ""); err != nil {
		t.Fatalf("First request should use the burst, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.ExploreSegments(ctx, "tok", "0,0,1,1", ""); err == nil {
		t.Error("Expected limiter wait to fail once the burst is spent")
	}
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/oauth/token" {
			t.Errorf("Expected POST /oauth/token, got %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		want := map[string]string{
			"client_id":     "cid",
			"client_secret": "csecret",
			"grant_type":    "refresh_token",
			"refresh_token": "r-old",
		}
		for k, v := range want {
			if got := r.PostForm.Get(k); got != v {
				t.Errorf("Expected form %s=%q, got %q", k, v, got)
			}
		}
		_, _ = w.Write([]byte(`{"token_type":"Bearer","access_token":"a-new","refresh_token":"r-new","expires_at":1700021600,"expires_in":21600}`))
	})

	cred, err := client.RefreshToken(context.Background(), "cid", "csecret", "r-old")
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}

	want := models.Credential{
		TokenType:    "Bearer",
		AccessToken:  "a-new",
		RefreshToken: "r-new",
		ExpiresAt:    1700021600,
		ExpiresIn:    21600,
	}
	if *cred != want {
		t.Errorf("Expected %+v, got %+v", want, *cred)
	}
}

func TestRefreshTokenRejected(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Bad Request","errors":[{"field":"refresh_token","code":"invalid"}]}`))
	})

	_, err := client.RefreshToken(context.Background(), "cid", "csecret", "bad")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 APIError, got %v", err)
	}
}

func TestRefreshTokenMissingAccessToken(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
	})

	if _, err := client.RefreshToken(context.Background(), "cid", "csecret", "r"); err == nil {
		t.Error("Expected error for response without access_token")
	}
}

func TestNewClientDefaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{})
	if c.baseURL != DefaultBaseURL {
		t.Errorf("Expected base URL %s, got %s", DefaultBaseURL, c.baseURL)
	}
	if c.oauthURL != DefaultOAuthURL {
		t.Errorf("Expected OAuth URL %s, got %s", DefaultOAuthURL, c.oauthURL)
	}
	if c.httpClient.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", c.httpClient.Timeout)
	}
}
