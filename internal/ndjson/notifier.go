// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package ndjson

import (
	"context"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/segmenthunter/internal/blobstore"
	"github.com/tomtom215/segmenthunter/internal/eventprocessor"
	"github.com/tomtom215/segmenthunter/internal/logging"
	"github.com/tomtom215/segmenthunter/internal/models"
)

// Publisher sends one message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg *message.Message) error
}

// Notifier publishes a ConvertRequest for every raw JSON blob written to a
// bucket after it starts watching.
type Notifier struct {
	watcher   blobstore.Watcher
	publisher Publisher
	converter *Converter
	bucket    string
	topic     string
}

// NewNotifier creates a Notifier. converter supplies the output prefix so
// that NDJSON files do not trigger conversions of their own.
func NewNotifier(watcher blobstore.Watcher, publisher Publisher, converter *Converter, bucket, topic string) *Notifier {
	return &Notifier{
		watcher:   watcher,
		publisher: publisher,
		converter: converter,
		bucket:    bucket,
		topic:     topic,
	}
}

// Wants reports whether an object change should trigger a conversion.
func (n *Notifier) Wants(event blobstore.Event) bool {
	return !event.Deleted &&
		strings.HasSuffix(event.Name, ".json") &&
		!n.converter.IsOutput(event.Name)
}

// Run watches the bucket until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	events, err := n.watcher.Watch(ctx, n.bucket)
	if err != nil {
		return err
	}

	logging.Ctx(ctx).Info().Str("bucket", n.bucket).Str("topic", n.topic).Msg("Watching bucket for new segment batches")

	for event := range events {
		if !n.Wants(event) {
			continue
		}
		if err := n.notify(ctx, event); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (n *Notifier) notify(ctx context.Context, event blobstore.Event) error {
	req := models.ConvertRequest{BlobName: event.Name, BucketName: event.Bucket}
	msg, err := eventprocessor.NewMessage(req, map[string]string{
		eventprocessor.MetadataTraceID: event.Name,
	})
	if err != nil {
		return err
	}
	msg.UUID = event.Bucket + "/" + event.Name

	if err := n.publisher.Publish(ctx, n.topic, msg); err != nil {
		return fmt.Errorf("publish convert request for %s: %w", event.Name, err)
	}

	logging.Ctx(ctx).Debug().Str("blob", event.Name).Msg("Convert request published")
	return nil
}
