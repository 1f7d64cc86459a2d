// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package services

import (
	"context"
	"time"

	"github.com/tomtom215/segmenthunter/internal/dispatcher"
	"github.com/tomtom215/segmenthunter/internal/logging"
)

// PendingDispatcher publishes every pending cell once.
type PendingDispatcher interface {
	Run(ctx context.Context) (dispatcher.Result, error)
}

// DispatchService runs the dispatcher immediately and then on every tick.
// A failed run is logged and retried on the next tick; cells that were not
// published stay pending.
type DispatchService struct {
	dispatcher PendingDispatcher
	interval   time.Duration
	name       string
}

// NewDispatchService creates the periodic dispatch loop. A non-positive
// interval means one minute.
func NewDispatchService(d PendingDispatcher, interval time.Duration) *DispatchService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &DispatchService{
		dispatcher: d,
		interval:   interval,
		name:       "dispatch-loop",
	}
}

// Serve implements suture.Service.
func (s *DispatchService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.runOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *DispatchService) runOnce(ctx context.Context) {
	result, err := s.dispatcher.Run(ctx)
	if err != nil {
		logging.Error().Err(err).
			Int("published", result.Published).
			Int("failed", result.Failed).
			Msg("Dispatch run failed")
		return
	}
	if result.Published > 0 {
		logging.Info().Int("published", result.Published).Msg("Dispatch run complete")
	}
}

func (s *DispatchService) String() string {
	return s.name
}
