// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package geogrid

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/tomtom215/segmenthunter/internal/models"
)

// CSVHeader is the column layout of a grid CSV file.
var CSVHeader = []string{"sw_latitude", "sw_longitude", "ne_latitude", "ne_longitude", "status"}

// ErrInvalidCSV is returned by ReadCSV for malformed input.
var ErrInvalidCSV = errors.New("invalid grid csv")

// WriteCSV writes cells with a header row. Every row has status pending.
func WriteCSV(w io.Writer, cells []orb.Bound) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, b := range cells {
		row := []string{
			models.FormatCoordinate(b.Min.Lat()),
			models.FormatCoordinate(b.Min.Lon()),
			models.FormatCoordinate(b.Max.Lat()),
			models.FormatCoordinate(b.Max.Lon()),
			string(models.StatusPending),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV reads cells written by WriteCSV. The status column is optional and
// ignored; every cell read is seeded as pending.
func ReadCSV(r io.Reader) ([]orb.Bound, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return []orb.Bound{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var cells []orb.Bound
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if len(row) < 4 {
			return nil, fmt.Errorf("%w: line %d has %d columns, want at least 4", ErrInvalidCSV, line, len(row))
		}

		var v [4]float64
		for i := range v {
			v[i], err = strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %v", ErrInvalidCSV, line, CSVHeader[i], err)
			}
		}
		if v[0] >= v[2] || v[1] >= v[3] {
			return nil, fmt.Errorf("%w: line %d south-west corner is not south-west of north-east corner", ErrInvalidCSV, line)
		}

		cells = append(cells, orb.Bound{
			Min: orb.Point{v[1], v[0]},
			Max: orb.Point{v[3], v[2]},
		})
	}

	if cells == nil {
		cells = []orb.Bound{}
	}
	return cells, nil
}

func checkHeader(header []string) error {
	if len(header) < 4 {
		return fmt.Errorf("%w: header has %d columns, want at least 4", ErrInvalidCSV, len(header))
	}
	for i := 0; i < 4; i++ {
		if strings.TrimSpace(strings.ToLower(header[i])) != CSVHeader[i] {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrInvalidCSV, i+1, header[i], CSVHeader[i])
		}
	}
	return nil
}
