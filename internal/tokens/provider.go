// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package tokens

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/segmenthunter/internal/logging"
	"github.com/tomtom215/segmenthunter/internal/metrics"
	"github.com/tomtom215/segmenthunter/internal/models"
	"github.com/tomtom215/segmenthunter/internal/secretstore"
)

// Secret kinds.
const (
	KindAccessToken  = "strava-access-token"
	KindRefreshToken = "strava-refresh-token"
	KindClientID     = "strava-client-id"
	KindClientSecret = "strava-client-secret"
)

// SecretName returns the secret name of kind for env, "{kind}--{env}".
func SecretName(kind, env string) string {
	return kind + "--" + env
}

// TokenProvider returns a credential that is valid now.
type TokenProvider interface {
	GetValidToken(ctx context.Context) (*models.Credential, error)
}

// Refresher performs the OAuth refresh grant.
type Refresher interface {
	RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*models.Credential, error)
}

// Provider implements TokenProvider on a secret store. The read-check-refresh
// sequence runs under a mutex so concurrent callers trigger one refresh.
type Provider struct {
	secrets   secretstore.Store
	refresher Refresher
	env       string
	now       func() time.Time

	mu sync.Mutex
}

// NewProvider creates a Provider for env.
func NewProvider(secrets secretstore.Store, refresher Refresher, env string) *Provider {
	return &Provider{
		secrets:   secrets,
		refresher: refresher,
		env:       env,
		now:       time.Now,
	}
}

// GetValidToken returns the stored access token, refreshing it first when
// it has expired or has never been stored.
func (p *Provider) GetValidToken(ctx context.Context) (*models.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cred, err := p.stored(ctx)
	if err != nil && !errors.Is(err, secretstore.ErrSecretNotFound) {
		return nil, err
	}
	if err == nil && !cred.Expired(p.now()) {
		return cred, nil
	}

	if cred != nil {
		logging.Ctx(ctx).Info().
			Int64("expires_at", cred.ExpiresAt).
			Msg("Strava token expired, refreshing")
	} else {
		logging.Ctx(ctx).Info().Msg("No stored Strava token, refreshing")
	}
	return p.refresh(ctx)
}

// Refresh forces a refresh grant regardless of the stored token's expiry.
func (p *Provider) Refresh(ctx context.Context) (*models.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refresh(ctx)
}

func (p *Provider) stored(ctx context.Context) (*models.Credential, error) {
	raw, err := p.secrets.Get(ctx, SecretName(KindAccessToken, p.env))
	if err != nil {
		return nil, err
	}

	var cred models.Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return nil, fmt.Errorf("decode stored access token: %w", err)
	}
	return &cred, nil
}

// refresh must be called with p.mu held.
func (p *Provider) refresh(ctx context.Context) (cred *models.Credential, err error) {
	defer func() { metrics.RecordTokenRefresh(err) }()

	values := make(map[string]string, 3)
	for _, kind := range []string{KindClientID, KindClientSecret, KindRefreshToken} {
		v, err := p.secrets.Get(ctx, SecretName(kind, p.env))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", SecretName(kind, p.env), err)
		}
		values[kind] = v
	}

	cred, err = p.refresher.RefreshToken(ctx, values[KindClientID], values[KindClientSecret], values[KindRefreshToken])
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}

	stored := cred.WithoutRefreshToken()
	doc, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode access token: %w", err)
	}
	if err := p.secrets.Put(ctx, SecretName(KindAccessToken, p.env), string(doc)); err != nil {
		return nil, fmt.Errorf("store access token: %w", err)
	}

	if cred.RefreshToken != "" {
		if err := p.secrets.Put(ctx, SecretName(KindRefreshToken, p.env), cred.RefreshToken); err != nil {
			return nil, fmt.Errorf("store refresh token: %w", err)
		}
	}

	logging.Ctx(ctx).Info().
		Str("access_token", logging.SanitizeToken(cred.AccessToken)).
		Int64("expires_at", cred.ExpiresAt).
		Msg("Strava token refreshed")

	return &stored, nil
}
