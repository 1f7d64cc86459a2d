// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/segmenthunter/internal/blobstore"
	"github.com/tomtom215/segmenthunter/internal/config"
	"github.com/tomtom215/segmenthunter/internal/database"
	"github.com/tomtom215/segmenthunter/internal/eventprocessor"
	"github.com/tomtom215/segmenthunter/internal/logging"
	"github.com/tomtom215/segmenthunter/internal/metrics"
	"github.com/tomtom215/segmenthunter/internal/models"
	"github.com/tomtom215/segmenthunter/internal/retry"
	"github.com/tomtom215/segmenthunter/internal/tokens"
	"github.com/tomtom215/segmenthunter/internal/validation"
)

// FieldTimeFetched is injected into every stored batch.
const FieldTimeFetched = "time_fetched"

// SegmentExplorer queries the segment API for one bounding box.
type SegmentExplorer interface {
	ExploreSegments(ctx context.Context, accessToken, bounds, activityType string) (map[string]interface{}, error)
}

// StatusSetter updates a cell's status.
type StatusSetter interface {
	SetStatus(ctx context.Context, id int64, status models.Status) error
}

// Config holds fetcher settings.
type Config struct {
	Bucket       string
	ActivityType string
	Retry        retry.Policy
}

// ConfigFrom builds the fetcher settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Bucket:       cfg.Storage.Bucket,
		ActivityType: cfg.Strava.ActivityType,
		Retry:        retry.FromConfig(cfg.Retry.Fetch),
	}
}

// Fetcher processes explore messages.
type Fetcher struct {
	tokens tokens.TokenProvider
	api    SegmentExplorer
	blobs  blobstore.Store
	cells  StatusSetter
	config Config
	now    func() time.Time
}

// New creates a Fetcher.
func New(tp tokens.TokenProvider, api SegmentExplorer, blobs blobstore.Store, cells StatusSetter, cfg Config) *Fetcher {
	return &Fetcher{
		tokens: tp,
		api:    api,
		blobs:  blobs,
		cells:  cells,
		config: cfg,
		now:    time.Now,
	}
}

// Handle is the router handler for the explore topic.
func (f *Fetcher) Handle(msg *message.Message) error {
	start := time.Now()

	state, err := f.Process(msg.Context(), msg)
	if err == nil {
		state = StateAcknowledged
	}

	metrics.RecordFetch(state.String(), err, time.Since(start))
	return err
}

// Process runs the fetch sequence for one message and returns the last
// state reached. A nil error means the message may be acknowledged.
func (f *Fetcher) Process(ctx context.Context, msg *message.Message) (State, error) {
	state := StateReceived

	var cell models.Cell
	if err := eventprocessor.DecodePayload(msg, &cell); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable cell message")
		return state, err
	}

	traceID := msg.Metadata.Get(eventprocessor.MetadataTraceID)
	if traceID == "" {
		traceID = cell.TraceID(f.now().Unix())
	}
	ctx = logging.ContextWithTraceID(ctx, traceID)
	log := logging.Ctx(ctx)

	if err := validation.ValidateCell(&cell); err != nil {
		log.Error().Err(err).Int64("cell_id", cell.ID).Msg("Dropping invalid cell")
		return state, eventprocessor.NewPermanentError("invalid cell", err)
	}

	cred, err := f.tokens.GetValidToken(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to obtain access token")
		return state, fmt.Errorf("get access token: %w", err)
	}
	state = StateTokenReady

	doc, err := f.explore(ctx, cred.AccessToken, cell)
	if err != nil {
		log.Error().Err(err).Str("bounds", cell.BoundsParam()).Msg("Segment fetch failed")
		return state, err
	}
	state = StateFetchedFromAPI

	fetchedAt := f.now().Unix()
	doc[FieldTimeFetched] = fetchedAt

	data, err := json.Marshal(doc)
	if err != nil {
		return state, fmt.Errorf("encode segment batch: %w", err)
	}

	name := cell.BlobName(fetchedAt)
	if err := f.blobs.Put(ctx, f.config.Bucket, name, data, blobstore.ContentTypeJSON); err != nil {
		log.Error().Err(err).Str("blob", name).Msg("Failed to write segment batch")
		return state, fmt.Errorf("write blob %s: %w", name, err)
	}
	state = StateBlobWritten

	if err := f.cells.SetStatus(ctx, cell.ID, models.StatusFetched); err != nil {
		log.Error().Err(err).Int64("cell_id", cell.ID).Msg("Failed to mark cell fetched")
		if errors.Is(err, database.ErrCellNotFound) {
			return state, eventprocessor.NewPermanentError("mark cell fetched", err)
		}
		return state, fmt.Errorf("mark cell %d fetched: %w", cell.ID, err)
	}
	state = StateStatusUpdated

	log.Info().
		Int64("cell_id", cell.ID).
		Str("blob", name).
		Int("bytes", len(data)).
		Msg("Cell fetched")
	return state, nil
}

// explore calls the segment API under the fetch retry policy.
func (f *Fetcher) explore(ctx context.Context, accessToken string, cell models.Cell) (map[string]interface{}, error) {
	log := logging.Ctx(ctx)

	policy := f.config.Retry
	policy.Retryable = func(err error) bool {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.RecordFetchRetry()
		log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", delay).Msg("Segment fetch attempt failed, retrying")
	}

	var doc map[string]interface{}
	err := policy.Do(ctx, func(ctx context.Context, _ int) error {
		result, err := f.api.ExploreSegments(ctx, accessToken, cell.BoundsParam(), f.config.ActivityType)
		if err != nil {
			return err
		}
		doc = result
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("explore segments: %w", err)
	}
	if doc == nil {
		doc = make(map[string]interface{})
	}
	return doc, nil
}
