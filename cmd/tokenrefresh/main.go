// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package main is the entry point for the Segment Hunter token refresh job.
//
// The job forces an OAuth refresh of the Strava credential stored for ENV
// and writes the new access and refresh tokens back to the secret store.
// Workers refresh on demand, so running it is only needed to rotate tokens
// ahead of time or to check that the stored client credentials still work.
package main

import (
	"context"
	"os"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/segmenthunter/internal/config"
	"github.com/tomtom215/segmenthunter/internal/eventprocessor"
	"github.com/tomtom215/segmenthunter/internal/logging"
	"github.com/tomtom215/segmenthunter/internal/secretstore"
	"github.com/tomtom215/segmenthunter/internal/strava"
	"github.com/tomtom215/segmenthunter/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LoggingConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	err = run(ctx, cfg)
	cancel()
	if err != nil {
		logging.Error().Err(err).Str("env", cfg.Env).Msg("Token refresh failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// The KV backend lives in JetStream; badger and memory need no broker.
	var js jetstream.JetStream
	if cfg.Secrets.Backend == secretstore.BackendNATS || cfg.Secrets.Backend == "" {
		broker, err := eventprocessor.StartBroker(ctx, &cfg.NATS, logging.NewWatermillLogger())
		if err != nil {
			return err
		}
		defer broker.Close(context.Background()) //nolint:errcheck
		js = broker.JetStream()
	}

	secrets, err := secretstore.Open(ctx, &cfg.Secrets, js)
	if err != nil {
		return err
	}
	defer secrets.Close() //nolint:errcheck

	client := strava.NewClient(strava.ConfigFrom(&cfg.Strava))
	cred, err := tokens.NewProvider(secrets, client, cfg.Env).Refresh(ctx)
	if err != nil {
		return err
	}

	logging.Info().
		Str("env", cfg.Env).
		Str("access_token", logging.SanitizeToken(cred.AccessToken)).
		Time("expires_at", time.Unix(cred.ExpiresAt, 0)).
		Msg("Token refreshed")
	return nil
}
