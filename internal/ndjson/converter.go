// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package ndjson

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/segmenthunter/internal/blobstore"
	"github.com/tomtom215/segmenthunter/internal/eventprocessor"
	"github.com/tomtom215/segmenthunter/internal/logging"
	"github.com/tomtom215/segmenthunter/internal/metrics"
	"github.com/tomtom215/segmenthunter/internal/models"
)

// Conversion outcomes, also used as metric labels.
const (
	OutcomeConverted = "converted"
	OutcomeEmpty     = "empty"
	OutcomeSkipped   = "skipped"
	OutcomeAbandoned = "abandoned"
	OutcomeFailed    = "failed"
)

// Converter turns ConvertRequest messages into NDJSON blobs.
type Converter struct {
	blobs         blobstore.Store
	defaultBucket string
	prefix        string
}

// NewConverter creates a Converter. Requests without a bucket use
// defaultBucket; output is written under "{prefix}/{blob name}".
func NewConverter(blobs blobstore.Store, defaultBucket, prefix string) *Converter {
	return &Converter{
		blobs:         blobs,
		defaultBucket: defaultBucket,
		prefix:        strings.TrimSuffix(prefix, "/"),
	}
}

// OutputName returns the NDJSON object name for a raw blob.
func (c *Converter) OutputName(blobName string) string {
	return path.Join(c.prefix, blobName)
}

// IsOutput reports whether name lies under the NDJSON prefix.
func (c *Converter) IsOutput(name string) bool {
	return strings.HasPrefix(name, c.prefix+"/")
}

// Handle is the router handler for the convert topic.
func (c *Converter) Handle(msg *message.Message) error {
	var req models.ConvertRequest
	if err := eventprocessor.DecodePayload(msg, &req); err != nil {
		metrics.RecordNDJSONConversion(OutcomeFailed, 0)
		return err
	}

	_, err := c.Process(msg.Context(), req)
	return err
}

// Process converts one blob. A request without a blob name is logged and
// dropped; it can never succeed.
func (c *Converter) Process(ctx context.Context, req models.ConvertRequest) (outcome string, err error) {
	segments := 0
	defer func() {
		if err != nil {
			outcome = OutcomeFailed
		}
		metrics.RecordNDJSONConversion(outcome, segments)
	}()

	if req.BlobName == "" {
		logging.Ctx(ctx).Error().Msg("Convert request has no blob_name, dropping")
		return OutcomeAbandoned, nil
	}

	bucket := req.BucketName
	if bucket == "" {
		bucket = c.defaultBucket
	}

	ctx = logging.ContextWithTraceID(ctx, req.BlobName)
	log := logging.Ctx(ctx)

	if c.IsOutput(req.BlobName) {
		log.Debug().Str("bucket", bucket).Msg("Blob is already NDJSON, skipping")
		return OutcomeSkipped, nil
	}

	data, err := c.blobs.Get(ctx, bucket, req.BlobName)
	if errors.Is(err, blobstore.ErrBlobNotFound) {
		return OutcomeFailed, eventprocessor.NewPermanentError("convert source blob missing", err)
	}
	if err != nil {
		return OutcomeFailed, err
	}

	out, ok, err := ConvertBytes(data)
	if err != nil {
		log.Error().Err(err).Str("bucket", bucket).Msg("Blob cannot be converted")
		return OutcomeFailed, eventprocessor.NewPermanentError("convert "+req.BlobName, err)
	}
	if !ok {
		log.Warn().Str("bucket", bucket).Msg("No segments found, skipping")
		return OutcomeEmpty, nil
	}

	segments = CountLines(out)
	name := c.OutputName(req.BlobName)
	if err := c.blobs.Put(ctx, bucket, name, []byte(out), blobstore.ContentTypeNDJSON); err != nil {
		return OutcomeFailed, err
	}

	log.Info().
		Str("bucket", bucket).
		Str("output", name).
		Int("segments", segments).
		Msg("Segments converted to NDJSON")
	return OutcomeConverted, nil
}
