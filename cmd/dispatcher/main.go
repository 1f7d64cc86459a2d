// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package main is the entry point for the Segment Hunter dispatcher.
//
// The dispatcher publishes every pending cell onto the explore topic once
// and exits. A run that fails to publish some cells exits non-zero; those
// cells stay pending and are picked up by the next run.
//
// The dispatcher needs the same NATS server as the workers. With
// NATS_EMBEDDED=true each process starts its own server, so in that setup
// use the worker's in-process loop (DISPATCH_INTERVAL) instead.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/segmenthunter/internal/config"
	"github.com/tomtom215/segmenthunter/internal/database"
	"github.com/tomtom215/segmenthunter/internal/dispatcher"
	"github.com/tomtom215/segmenthunter/internal/eventprocessor"
	"github.com/tomtom215/segmenthunter/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LoggingConfig())

	if cfg.NATS.EmbeddedServer {
		logging.Warn().Msg("Dispatching to an embedded NATS server; workers in other processes will not see these messages")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Dispatch failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cell store")
		}
	}()

	broker, err := eventprocessor.StartBroker(ctx, &cfg.NATS, logging.NewWatermillLogger())
	if err != nil {
		return err
	}
	defer func() {
		if err := broker.Close(context.Background()); err != nil {
			logging.Error().Err(err).Msg("Error closing NATS broker")
		}
	}()

	publisher, err := eventprocessor.NewPublisher(
		eventprocessor.PublisherConfigFrom(&cfg.NATS, broker.URL()),
		logging.NewWatermillLogger(),
	)
	if err != nil {
		return err
	}
	defer publisher.Close() //nolint:errcheck
	if cfg.CircuitBreaker.Enabled {
		publisher.SetCircuitBreaker(eventprocessor.NewCircuitBreaker(
			eventprocessor.CircuitBreakerConfigFrom("nats-publisher", &cfg.CircuitBreaker),
		))
	}

	start := time.Now()
	result, err := dispatcher.New(store, publisher, dispatcher.ConfigFrom(cfg)).Run(ctx)

	logging.Info().
		Int("published", result.Published).
		Int("failed", result.Failed).
		Str("topic", cfg.NATS.ExploreTopic).
		Dur("duration", time.Since(start)).
		Msg("Dispatch run finished")

	return err
}
