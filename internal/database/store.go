// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/tomtom215/segmenthunter/internal/config"
	"github.com/tomtom215/segmenthunter/internal/models"
)

// Store is the work-item table of grid cells.
type Store interface {
	// Seed inserts every rectangle as a pending cell in one transaction.
	// It returns (0, nil) without inserting when the table already has rows.
	Seed(ctx context.Context, rects []orb.Bound) (int, error)

	// ListByStatus returns all cells with the given status ordered by id.
	ListByStatus(ctx context.Context, status models.Status) ([]models.Cell, error)

	// Get returns a single cell or ErrCellNotFound.
	Get(ctx context.Context, id int64) (models.Cell, error)

	// SetStatus updates the status of one cell.
	SetStatus(ctx context.Context, id int64, status models.Status) error

	// CountByStatus returns the number of cells per status. Statuses with no
	// cells are present with a zero count.
	CountByStatus(ctx context.Context) (map[models.Status]int, error)

	Ping(ctx context.Context) error
	Close() error
}

// Open returns the Store selected by cfg.Driver and creates its schema.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverDuckDB:
		return NewDuckDB(ctx, cfg)
	case DriverSQLite:
		return NewSQLite(ctx, cfg)
	case DriverPostgres:
		return NewPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// Driver names accepted by Open.
const (
	DriverDuckDB   = "duckdb"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const defaultQueryTimeout = 30 * time.Second

// withTimeout bounds ctx by the configured query timeout.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// checkTransition explains why an UPDATE matched no row. current and found
// describe the row as re-read after the update.
func checkTransition(id int64, found bool, current, target models.Status) error {
	switch {
	case !found:
		return fmt.Errorf("%w: id %d", ErrCellNotFound, id)
	case current == target:
		return nil
	case current == models.StatusFetched && target == models.StatusPending:
		return fmt.Errorf("%w: cell %d is %s, cannot set %s", ErrInvalidTransition, id, current, target)
	default:
		return fmt.Errorf("cell %d: status update from %s to %s matched no row", id, current, target)
	}
}

func validStatus(status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return nil
}

func emptyCounts() map[models.Status]int {
	counts := make(map[models.Status]int, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		counts[s] = 0
	}
	return counts
}
