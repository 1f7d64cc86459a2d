// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package geogrid

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

const eps = 1e-12

func TestSplit_Count(t *testing.T) {
	t.Parallel()

	tests := []struct {
		nLat, nLon int
		want       int
	}{
		{1, 1, 1},
		{2, 3, 6},
		{30, 30, 900},
		{0, 5, 0},
		{5, 0, 0},
		{-1, 3, 0},
	}

	for _, tt := range tests {
		cells := Split(0, 0, 1, 1, tt.nLat, tt.nLon)
		if len(cells) != tt.want {
			t.Errorf("Split(%d,%d) produced %d cells, want %d", tt.nLat, tt.nLon, len(cells), tt.want)
		}
		if cells == nil {
			t.Errorf("Split(%d,%d) returned nil, want empty slice", tt.nLat, tt.nLon)
		}
	}
}

func TestSplit_SingleCellIsRegion(t *testing.T) {
	t.Parallel()

	cells := Split(51.45, -1.15, 51.75, -0.85, 1, 1)
	want := orb.Bound{Min: orb.Point{-1.15, 51.45}, Max: orb.Point{-0.85, 51.75}}

	if len(cells) != 1 || cells[0] != want {
		t.Errorf("Expected single cell %v, got %v", want, cells)
	}
}

func TestSplit_Example(t *testing.T) {
	t.Parallel()

	// 2x2 over (0,0)-(2,2): row-major, latitude outer.
	cells := Split(0, 0, 2, 2, 2, 2)
	want := []orb.Bound{
		{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}},
		{Min: orb.Point{1, 0}, Max: orb.Point{2, 1}},
		{Min: orb.Point{0, 1}, Max: orb.Point{1, 2}},
		{Min: orb.Point{1, 1}, Max: orb.Point{2, 2}},
	}

	if len(cells) != len(want) {
		t.Fatalf("Expected %d cells, got %d", len(want), len(cells))
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cell[%d] = %v, want %v", i, cells[i], want[i])
		}
	}
}

func TestSplit_TilesRegion(t *testing.T) {
	t.Parallel()

	r := DefaultRegion
	cells := r.Split()

	var area float64
	union := cells[0]
	for _, c := range cells {
		if c.Min.Lat() >= c.Max.Lat() || c.Min.Lon() >= c.Max.Lon() {
			t.Fatalf("degenerate cell %v", c)
		}
		area += (c.Max.Lat() - c.Min.Lat()) * (c.Max.Lon() - c.Min.Lon())
		union = union.Union(c)
	}

	if union != r.Bound() {
		t.Errorf("Expected union %v to equal region %v", union, r.Bound())
	}

	regionArea := (r.NELatitude - r.SWLatitude) * (r.NELongitude - r.SWLongitude)
	if math.Abs(area-regionArea) > 1e-9 {
		t.Errorf("Expected cell areas to sum to %v, got %v", regionArea, area)
	}
}

func TestSplit_NoOverlap(t *testing.T) {
	t.Parallel()

	cells := Split(-10, -20, 10, 20, 7, 9)

	for i := range cells {
		for j := i + 1; j < len(cells); j++ {
			a, b := cells[i], cells[j]
			overlapLat := math.Min(a.Max.Lat(), b.Max.Lat()) - math.Max(a.Min.Lat(), b.Min.Lat())
			overlapLon := math.Min(a.Max.Lon(), b.Max.Lon()) - math.Max(a.Min.Lon(), b.Min.Lon())
			if overlapLat > eps && overlapLon > eps {
				t.Fatalf("cells %d and %d overlap: %v %v", i, j, a, b)
			}
		}
	}
}

func TestSplit_Order(t *testing.T) {
	t.Parallel()

	nLat, nLon := 4, 5
	cells := Split(0, 0, 4, 5, nLat, nLon)

	for k := 1; k < len(cells); k++ {
		prev, cur := cells[k-1], cells[k]
		if k%nLon == 0 {
			if cur.Min.Lat() <= prev.Min.Lat() {
				t.Errorf("cell %d should start a new latitude band north of cell %d", k, k-1)
			}
			if cur.Min.Lon() != 0 {
				t.Errorf("cell %d should restart at the western edge, got lon %v", k, cur.Min.Lon())
			}
			continue
		}
		if cur.Min.Lat() != prev.Min.Lat() {
			t.Errorf("cells %d and %d should share a latitude band", k-1, k)
		}
		if cur.Min.Lon() != prev.Max.Lon() {
			t.Errorf("cell %d should start where cell %d ends", k, k-1)
		}
	}
}

func TestSplit_LastBreakpointExact(t *testing.T) {
	t.Parallel()

	cells := Split(51.45, -1.15, 51.75, -0.85, 30, 30)
	last := cells[len(cells)-1]

	if last.Max.Lat() != 51.75 || last.Max.Lon() != -0.85 {
		t.Errorf("Expected last cell to end exactly at (51.75,-0.85), got %v", last.Max)
	}
}
