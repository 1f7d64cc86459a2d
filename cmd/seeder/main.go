// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package main is the entry point for the Segment Hunter seeder.
//
// The seeder runs once per exploration area. It partitions the configured
// region into a grid of cells, or reads the grid from SEED_CSV_PATH when that
// file exists, and inserts every cell into the work-item table as pending.
// Running it again against a populated table inserts nothing.
//
// Optional outputs for inspecting the grid before a run:
//
//	SEED_EXPORT_CSV_PATH=grid.csv     # one row per cell, status pending
//	SEED_GEOJSON_PATH=grid.geojson    # polygon FeatureCollection
package main

import (
	"context"
	"time"

	"github.com/tomtom215/segmenthunter/internal/config"
	"github.com/tomtom215/segmenthunter/internal/database"
	"github.com/tomtom215/segmenthunter/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LoggingConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	rects, source, err := loadGrid(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build grid")
	}
	logging.Info().Int("cells", len(rects)).Str("source", source).Msg("Grid ready")

	if err := exportGrid(&cfg.Seed, rects); err != nil {
		logging.Fatal().Err(err).Msg("Failed to export grid")
	}

	store, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open cell store")
	}

	n, err := store.Seed(ctx, rects)
	if closeErr := store.Close(); closeErr != nil {
		logging.Error().Err(closeErr).Msg("Error closing cell store")
	}
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to seed cells")
	}

	if n == 0 {
		logging.Info().Msg("Cell table already populated, nothing inserted")
		return
	}
	logging.Info().Int("inserted", n).Str("driver", cfg.Database.Driver).Msg("Cells seeded")
}
