// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package logging provides centralized zerolog-based structured logging for Segment Hunter.
//
// Every binary configures the global logger once at startup and every package
// logs through it, so all processes of the pipeline share one JSON line format.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Int("cells", n).Msg("Seeded work-item table")
//	logging.Error().Err(err).Msg("Dispatch failed")
//
// # Trace IDs
//
// Each dispatched cell carries a trace id of the form "{cell_id}-{unix_seconds}".
// The dispatcher and the fetcher put it into the context, and Ctx(ctx) attaches
// it to every line so a cell can be followed from queue to blob store:
//
//	ctx = logging.ContextWithTraceID(ctx, traceID)
//	logging.Ctx(ctx).Warn().Err(err).Int("attempt", 2).Msg("Explore request failed")
//	// {"level":"warn","trace_id":"42-1700000000","attempt":2,"error":"...","message":"Explore request failed"}
//
// # Adapters
//
//   - SlogHandler / NewSlogLogger: slog front end for sutureslog
//   - WatermillLogger: watermill.LoggerAdapter for publishers, subscribers and the router
//
// # Configuration
//
// Configured through the logging section of the application config
// (LOG_LEVEL, LOG_FORMAT, LOG_CALLER environment variables).
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging
