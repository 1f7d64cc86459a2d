// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package api

import (
	"context"
	"time"

	"github.com/tomtom215/segmenthunter/internal/cache"
	"github.com/tomtom215/segmenthunter/internal/models"
)

// summaryTTL bounds how stale the cell counts may be. Counting scans the
// whole table.
const summaryTTL = 5 * time.Second

// CellStore is the part of the work-item store the API reads.
type CellStore interface {
	ListByStatus(ctx context.Context, status models.Status) ([]models.Cell, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	Ping(ctx context.Context) error
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	store     CellStore
	broker    Pinger
	cache     *cache.Cache
	startTime time.Time
}

// NewHandler creates a Handler. broker may be nil when the process has no
// queue connection; readiness then only checks the store.
func NewHandler(store CellStore, broker Pinger) *Handler {
	return &Handler{
		store:     store,
		broker:    broker,
		cache:     cache.New(summaryTTL),
		startTime: time.Now(),
	}
}
