// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package database

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/paulmach/orb"

	"github.com/tomtom215/segmenthunter/internal/models"
)

const tableName = "bounding_boxes"

// cellColumns is the scan order used by scanCell.
var cellColumns = []string{"id", "sw_latitude", "sw_longitude", "ne_latitude", "ne_longitude", "status"}

// insertColumns excludes id, which each backend generates.
var insertColumns = []string{"sw_latitude", "sw_longitude", "ne_latitude", "ne_longitude", "status"}

// seedBatchSize keeps multi-row inserts below SQLite's bound-parameter limit.
const seedBatchSize = 100

// statements builds the SQL shared by every backend.
type statements struct {
	sb sq.StatementBuilderType
}

func newStatements(format sq.PlaceholderFormat) statements {
	return statements{sb: sq.StatementBuilder.PlaceholderFormat(format)}
}

func (s statements) countAll() sq.SelectBuilder {
	return s.sb.Select("COUNT(*)").From(tableName)
}

func (s statements) insert(rects []orb.Bound) sq.InsertBuilder {
	b := s.sb.Insert(tableName).Columns(insertColumns...)
	for _, r := range rects {
		b = b.Values(cellValues(r)...)
	}
	return b
}

func (s statements) listByStatus(status models.Status) sq.SelectBuilder {
	return s.sb.Select(cellColumns...).
		From(tableName).
		Where(sq.Eq{"status": string(status)}).
		OrderBy("id")
}

func (s statements) get(id int64) sq.SelectBuilder {
	return s.sb.Select(cellColumns...).From(tableName).Where(sq.Eq{"id": id})
}

// setStatus only matches pending rows when the target is pending, so a
// fetched row is never moved back.
func (s statements) setStatus(id int64, status models.Status) sq.UpdateBuilder {
	b := s.sb.Update(tableName).Set("status", string(status)).Where(sq.Eq{"id": id})
	if status == models.StatusPending {
		b = b.Where(sq.Eq{"status": string(models.StatusPending)})
	}
	return b
}

func (s statements) countByStatus() sq.SelectBuilder {
	return s.sb.Select("status", "COUNT(*)").From(tableName).GroupBy("status")
}

// cellValues returns insert values for a pending cell in insertColumns order.
func cellValues(r orb.Bound) []interface{} {
	c := models.NewCell(r)
	return []interface{}{c.SWLatitude, c.SWLongitude, c.NELatitude, c.NELongitude, string(models.StatusPending)}
}

// rowScanner is satisfied by *sql.Row, *sql.Rows and pgx.Row.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCell(row rowScanner) (models.Cell, error) {
	var (
		c      models.Cell
		status string
	)
	if err := row.Scan(&c.ID, &c.SWLatitude, &c.SWLongitude, &c.NELatitude, &c.NELongitude, &status); err != nil {
		return models.Cell{}, err
	}
	c.Status = models.Status(status)
	return c, nil
}

func batches(rects []orb.Bound, size int) [][]orb.Bound {
	var out [][]orb.Bound
	for start := 0; start < len(rects); start += size {
		end := start + size
		if end > len(rects) {
			end = len(rects)
		}
		out = append(out, rects[start:end])
	}
	return out
}
