// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/paulmach/orb"

	"github.com/tomtom215/segmenthunter/internal/config"
	"github.com/tomtom215/segmenthunter/internal/geogrid"
	"github.com/tomtom215/segmenthunter/internal/logging"
)

const (
	sourceCSV    = "csv"
	sourceRegion = "region"
)

func regionFrom(r *config.RegionConfig) geogrid.Region {
	return geogrid.Region{
		SWLatitude:   r.SWLatitude,
		SWLongitude:  r.SWLongitude,
		NELatitude:   r.NELatitude,
		NELongitude:  r.NELongitude,
		LatDivisions: r.LatDivisions,
		LonDivisions: r.LonDivisions,
	}
}

// loadGrid returns the cells listed in the seed CSV when it exists, and the
// partitioned region otherwise.
func loadGrid(cfg *config.Config) ([]orb.Bound, string, error) {
	if path := cfg.Seed.CSVPath; path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			rects, err := geogrid.ReadCSV(f)
			if err != nil {
				return nil, "", fmt.Errorf("read %s: %w", path, err)
			}
			return rects, sourceCSV, nil
		case errors.Is(err, fs.ErrNotExist):
			logging.Info().Str("path", path).Msg("Seed CSV not found, partitioning region")
		default:
			return nil, "", fmt.Errorf("open %s: %w", path, err)
		}
	}

	return regionFrom(&cfg.Region).Split(), sourceRegion, nil
}

// exportGrid writes the optional CSV and GeoJSON copies of the grid.
func exportGrid(cfg *config.SeedConfig, rects []orb.Bound) error {
	if cfg.ExportCSVPath != "" {
		if err := writeFile(cfg.ExportCSVPath, func(f *os.File) error {
			return geogrid.WriteCSV(f, rects)
		}); err != nil {
			return err
		}
		logging.Info().Str("path", cfg.ExportCSVPath).Msg("Grid CSV written")
	}
	if cfg.GeoJSONPath != "" {
		if err := writeFile(cfg.GeoJSONPath, func(f *os.File) error {
			return geogrid.WriteGeoJSON(f, rects)
		}); err != nil {
			return err
		}
		logging.Info().Str("path", cfg.GeoJSONPath).Msg("Grid GeoJSON written")
	}
	return nil
}

func writeFile(path string, write func(f *os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
