// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package geogrid

import (
	"github.com/paulmach/orb"
)

// Region is a bounding box together with its grid resolution.
type Region struct {
	SWLatitude   float64
	SWLongitude  float64
	NELatitude   float64
	NELongitude  float64
	LatDivisions int
	LonDivisions int
}

// DefaultRegion is the area around Oxford the pipeline was first run on.
var DefaultRegion = Region{
	SWLatitude:   51.45,
	SWLongitude:  -1.15,
	NELatitude:   51.75,
	NELongitude:  -0.85,
	LatDivisions: 30,
	LonDivisions: 30,
}

// Bound returns the region as an orb bound.
func (r Region) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.SWLongitude, r.SWLatitude},
		Max: orb.Point{r.NELongitude, r.NELatitude},
	}
}

// Split partitions the region into LatDivisions x LonDivisions cells.
func (r Region) Split() []orb.Bound {
	return Split(r.SWLatitude, r.SWLongitude, r.NELatitude, r.NELongitude, r.LatDivisions, r.LonDivisions)
}

// Split partitions the box [latMin, latMax] x [lonMin, lonMax] into nLat x nLon
// cells in row-major order. A non-positive division count yields no cells.
func Split(latMin, lonMin, latMax, lonMax float64, nLat, nLon int) []orb.Bound {
	if nLat <= 0 || nLon <= 0 {
		return []orb.Bound{}
	}

	lats := linspace(latMin, latMax, nLat)
	lons := linspace(lonMin, lonMax, nLon)

	cells := make([]orb.Bound, 0, nLat*nLon)
	for i := 0; i < nLat; i++ {
		for j := 0; j < nLon; j++ {
			cells = append(cells, orb.Bound{
				Min: orb.Point{lons[j], lats[i]},
				Max: orb.Point{lons[j+1], lats[i+1]},
			})
		}
	}
	return cells
}

// linspace returns n+1 evenly spaced breakpoints from lo to hi inclusive.
func linspace(lo, hi float64, n int) []float64 {
	points := make([]float64, n+1)
	step := (hi - lo) / float64(n)
	for i := 0; i < n; i++ {
		points[i] = lo + float64(i)*step
	}
	points[n] = hi
	return points
}
