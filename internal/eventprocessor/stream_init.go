// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package eventprocessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamContext defines the subset of jetstream.JetStream used by StreamInitializer.
type JetStreamContext interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// StreamInitializer makes sure the pipeline stream exists with the
// configured settings before publishers and subscribers start.
type StreamInitializer struct {
	js     JetStreamContext
	config StreamConfig
}

// NewStreamInitializer creates a new stream initializer with the given configuration.
func NewStreamInitializer(js JetStreamContext, cfg *StreamConfig) (*StreamInitializer, error) {
	if js == nil {
		return nil, fmt.Errorf("JetStream context required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("stream config required")
	}
	if len(cfg.Subjects) == 0 {
		return nil, fmt.Errorf("stream %s: at least one subject required", cfg.Name)
	}

	return &StreamInitializer{
		js:     js,
		config: *cfg,
	}, nil
}

// streamConfig renders the JetStream stream settings. File storage keeps
// queued cells across broker restarts; Duplicates is the window in which a
// repeated Nats-Msg-Id is dropped.
func (s *StreamInitializer) streamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:       s.config.Name,
		Subjects:   s.config.Subjects,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     s.config.MaxAge,
		MaxBytes:   s.config.MaxBytes,
		MaxMsgs:    s.config.MaxMsgs,
		Duplicates: s.config.DuplicateWindow,
		Replicas:   s.config.Replicas,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}
}

// EnsureStream creates or updates the stream. Calling it repeatedly is safe.
func (s *StreamInitializer) EnsureStream(ctx context.Context) (jetstream.Stream, error) {
	streamCfg := s.streamConfig()

	_, err := s.js.Stream(ctx, s.config.Name)
	if err == nil {
		stream, err := s.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", s.config.Name, err)
		}
		return stream, nil
	}

	if errors.Is(err, jetstream.ErrStreamNotFound) {
		stream, err := s.js.CreateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", s.config.Name, err)
		}
		return stream, nil
	}

	return nil, fmt.Errorf("check stream %s: %w", s.config.Name, err)
}

// IsHealthy checks if the stream exists and is accessible.
func (s *StreamInitializer) IsHealthy(ctx context.Context) bool {
	_, err := s.js.Stream(ctx, s.config.Name)
	return err == nil
}

// Config returns the current stream configuration.
func (s *StreamInitializer) Config() StreamConfig {
	return s.config
}
