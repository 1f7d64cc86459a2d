// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Status is the exploration state of a cell.
type Status string

const (
	// StatusPending marks a cell whose segments have not been fetched yet.
	StatusPending Status = "pending"

	// StatusFetched marks a cell whose segment batch has been written to the blob store.
	StatusFetched Status = "fetched"
)

// AllStatuses lists every valid status in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusFetched}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusFetched
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown cell status %q", s)
	}
	return status, nil
}

// Cell is one row of the work-item table: a rectangle of the exploration
// area together with its fetch status.
//
// The validate tags are checked when a cell arrives as a queue payload.
type Cell struct {
	ID          int64   `json:"id" validate:"gte=1"`
	SWLatitude  float64 `json:"sw_latitude" validate:"latitude"`
	SWLongitude float64 `json:"sw_longitude" validate:"longitude"`
	NELatitude  float64 `json:"ne_latitude" validate:"latitude,gtfield=SWLatitude"`
	NELongitude float64 `json:"ne_longitude" validate:"longitude,gtfield=SWLongitude"`
	Status      Status  `json:"status,omitempty" validate:"omitempty,cell_status"`
}

// NewCell builds a pending cell from an orb bound.
// orb stores points as [lon, lat], so Min is the south-west corner.
func NewCell(b orb.Bound) Cell {
	return Cell{
		SWLatitude:  b.Min.Lat(),
		SWLongitude: b.Min.Lon(),
		NELatitude:  b.Max.Lat(),
		NELongitude: b.Max.Lon(),
		Status:      StatusPending,
	}
}

// Bound returns the cell rectangle as an orb bound.
func (c Cell) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{c.SWLongitude, c.SWLatitude},
		Max: orb.Point{c.NELongitude, c.NELatitude},
	}
}

// Coordinates returns the cell corners in API order: sw_lat, sw_lon, ne_lat, ne_lon.
func (c Cell) Coordinates() [4]float64 {
	return [4]float64{c.SWLatitude, c.SWLongitude, c.NELatitude, c.NELongitude}
}

// BoundsParam renders the cell as the comma-joined "sw_lat,sw_lon,ne_lat,ne_lon"
// string expected by the segment explore endpoint.
func (c Cell) BoundsParam() string {
	coords := c.Coordinates()
	parts := make([]string, len(coords))
	for i, v := range coords {
		parts[i] = FormatCoordinate(v)
	}
	return strings.Join(parts, ",")
}

// BlobName returns the object name a segment batch for this cell is stored under:
// "[sw_lat,sw_lon,ne_lat,ne_lon]__{fetchedAt}.json".
func (c Cell) BlobName(fetchedAt int64) string {
	return "[" + c.BoundsParam() + "]__" + strconv.FormatInt(fetchedAt, 10) + ".json"
}

// TraceID returns the per-dispatch trace identifier "{id}-{unix}".
func (c Cell) TraceID(unix int64) string {
	return strconv.FormatInt(c.ID, 10) + "-" + strconv.FormatInt(unix, 10)
}

// FormatCoordinate renders a coordinate in its shortest round-trip decimal form.
// Integral values keep a trailing ".0" so that blob names stay stable across the
// pipeline's producers (0 renders as "0.0", 51.45 as "51.45").
func FormatCoordinate(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
