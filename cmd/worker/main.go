// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package main is the entry point for the Segment Hunter worker.
//
// The worker is the long-running half of the pipeline. It consumes cell
// messages from the explore topic, fetches the segments of each cell from
// the Strava explore endpoint and stores the raw batch in the object store.
// New batches are announced on the convert topic and turned into NDJSON by
// the same process.
//
// # Supervisor Tree
//
//	root
//	├── messaging
//	│   ├── message-router     (fetcher, ndjson-converter)
//	│   ├── blob-notifier      (object store watch -> convert topic)
//	│   └── dispatch-loop      (only when DISPATCH_INTERVAL > 0)
//	└── api
//	    └── http-server        (only when SERVER_ENABLED=true)
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. In-flight messages are given
// NATS_CLOSE_TIMEOUT to finish; unacknowledged messages are redelivered to
// another worker.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/segmenthunter/internal/config"
	"github.com/tomtom215/segmenthunter/internal/database"
	"github.com/tomtom215/segmenthunter/internal/eventprocessor"
	"github.com/tomtom215/segmenthunter/internal/logging"
	"github.com/tomtom215/segmenthunter/internal/metrics"
	"github.com/tomtom215/segmenthunter/internal/supervisor"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.LoggingConfig())
	logging.Info().Str("version", version).Str("env", cfg.Env).Msg("Starting Segment Hunter worker")

	started := time.Now()
	metrics.SetAppInfo(version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open cell store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cell store")
		}
	}()
	logging.Info().Str("driver", cfg.Database.Driver).Msg("Cell store opened")

	broker, err := eventprocessor.StartBroker(ctx, &cfg.NATS, logging.NewWatermillLogger())
	if err != nil {
		store.Close() //nolint:errcheck
		logging.Fatal().Err(err).Msg("Failed to start NATS broker")
	}
	defer func() {
		if err := broker.Close(context.Background()); err != nil {
			logging.Error().Err(err).Msg("Error closing NATS broker")
		}
	}()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(&cfg.Supervisor))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	w, err := newWorker(ctx, cfg, store, broker)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize worker")
	}
	defer w.Close()
	w.register(tree)

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.UpdateUptime(started)
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
		cancel()
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Worker stopped gracefully")
}
