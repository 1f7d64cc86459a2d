// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/segmenthunter/internal/config"
	"github.com/tomtom215/segmenthunter/internal/eventprocessor"
	"github.com/tomtom215/segmenthunter/internal/logging"
	"github.com/tomtom215/segmenthunter/internal/metrics"
	"github.com/tomtom215/segmenthunter/internal/models"
	"github.com/tomtom215/segmenthunter/internal/retry"
)

// Publisher sends one message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg *message.Message) error
}

// CellLister lists cells by status.
type CellLister interface {
	ListByStatus(ctx context.Context, status models.Status) ([]models.Cell, error)
}

// Config holds dispatcher settings.
type Config struct {
	Env   string
	Topic string
	Retry retry.Policy
}

// ConfigFrom builds the dispatcher settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Env:   cfg.Env,
		Topic: cfg.NATS.ExploreTopic,
		Retry: retry.FromConfig(cfg.Retry.Publish),
	}
}

// Result counts the outcome of one dispatch run.
type Result struct {
	Published int
	Failed    int
}

// Dispatcher publishes cells.
type Dispatcher struct {
	cells     CellLister
	publisher Publisher
	config    Config
	now       func() time.Time
}

// New creates a Dispatcher.
func New(cells CellLister, publisher Publisher, cfg Config) *Dispatcher {
	return &Dispatcher{
		cells:     cells,
		publisher: publisher,
		config:    cfg,
		now:       time.Now,
	}
}

// Run dispatches every pending cell.
func (d *Dispatcher) Run(ctx context.Context) (Result, error) {
	pending, err := d.cells.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return Result{}, fmt.Errorf("list pending cells: %w", err)
	}

	logging.Ctx(ctx).Info().Int("pending", len(pending)).Msg("Dispatching pending cells")
	return d.Dispatch(ctx, pending)
}

// Dispatch publishes cells in order. Per-cell failures do not stop the run;
// the returned error joins all of them. A cancelled context stops the run.
func (d *Dispatcher) Dispatch(ctx context.Context, cells []models.Cell) (Result, error) {
	var (
		result Result
		errs   []error
	)

	for _, cell := range cells {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		traceID := cell.TraceID(d.now().Unix())
		if err := d.publish(ctx, cell, traceID); err != nil {
			result.Failed++
			metrics.RecordDispatch(false)
			logging.Ctx(ctx).Error().
				Err(err).
				Str("trace_id", traceID).
				Int64("cell_id", cell.ID).
				Msg("Failed to publish cell")
			errs = append(errs, fmt.Errorf("cell %d (trace %s): %w", cell.ID, traceID, err))
			continue
		}

		result.Published++
		metrics.RecordDispatch(true)
		logging.Ctx(ctx).Debug().
			Str("trace_id", traceID).
			Int64("cell_id", cell.ID).
			Msg("Cell published")
	}

	logging.Ctx(ctx).Info().
		Int("published", result.Published).
		Int("failed", result.Failed).
		Msg("Dispatch run finished")

	if len(errs) > 0 {
		return result, fmt.Errorf("dispatch: %d of %d cells failed: %w", result.Failed, len(cells), errors.Join(errs...))
	}
	return result, nil
}

func (d *Dispatcher) publish(ctx context.Context, cell models.Cell, traceID string) error {
	policy := d.config.Retry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.RecordPublishRetry()
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("trace_id", traceID).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("Publish attempt failed")
	}

	return policy.Do(ctx, func(ctx context.Context, _ int) error {
		// A fresh message per attempt: the publisher may have consumed the previous one.
		msg, err := eventprocessor.NewMessage(cell, map[string]string{
			eventprocessor.MetadataEnv:     d.config.Env,
			eventprocessor.MetadataTraceID: traceID,
		})
		if err != nil {
			return err
		}
		msg.UUID = traceID
		return d.publisher.Publish(logging.ContextWithTraceID(ctx, traceID), d.config.Topic, msg)
	})
}
