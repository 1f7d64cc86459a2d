// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package geogrid

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection renders cells as GeoJSON polygons. Each feature carries
// its 1-based position in the grid as the "index" property, matching the id
// the work-item store assigns when the grid is seeded into an empty table.
func FeatureCollection(cells []orb.Bound) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, b := range cells {
		f := geojson.NewFeature(b.ToPolygon())
		f.Properties["index"] = i + 1
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON writes the FeatureCollection of cells to w.
func WriteGeoJSON(w io.Writer, cells []orb.Bound) error {
	data, err := FeatureCollection(cells).MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal geojson: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}
