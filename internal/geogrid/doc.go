// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package geogrid partitions a geographic bounding box into a regular grid of
// rectangular cells.
//
// Cells are orb.Bound values. orb stores points as [lon, lat], so a cell is
// Min = {lon_j, lat_i} (south-west) and Max = {lon_j+1, lat_i+1} (north-east).
// Breakpoints on each axis are evenly spaced from the minimum to the maximum,
// inclusive, and the last breakpoint is the maximum exactly, so the cells tile
// the region with no gaps and share edges without overlapping.
//
// Cells are emitted row-major: latitude bands from south to north, and within
// a band longitude from west to east.
//
// The package also reads and writes grids as CSV (the seed file format) and
// renders them as a GeoJSON FeatureCollection for inspection on a map.
package geogrid
