// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/segmenthunter/internal/logging"
	"github.com/tomtom215/segmenthunter/internal/metrics"
)

// ObjectStore implements Store and Watcher on JetStream Object Store buckets.
// Bucket handles are created on first use and cached.
type ObjectStore struct {
	js jetstream.JetStream

	mu      sync.Mutex
	buckets map[string]jetstream.ObjectStore
}

// NewObjectStore creates an ObjectStore on the given JetStream context.
func NewObjectStore(js jetstream.JetStream) *ObjectStore {
	return &ObjectStore{
		js:      js,
		buckets: make(map[string]jetstream.ObjectStore),
	}
}

func (s *ObjectStore) bucket(ctx context.Context, name string) (jetstream.ObjectStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obs, ok := s.buckets[name]; ok {
		return obs, nil
	}

	obs, err := s.js.CreateOrUpdateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      name,
		Description: "Segment Hunter blobs",
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("open object store bucket %s: %w", name, err)
	}

	s.buckets[name] = obs
	return obs, nil
}

// Put writes data under name in bucket.
func (s *ObjectStore) Put(ctx context.Context, bucket, name string, data []byte, contentType string) error {
	obs, err := s.bucket(ctx, bucket)
	if err != nil {
		return err
	}

	meta := jetstream.ObjectMeta{Name: name}
	if contentType != "" {
		meta.Headers = natsgo.Header{}
		meta.Headers.Set("Content-Type", contentType)
	}

	if _, err := obs.Put(ctx, meta, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, name, err)
	}

	metrics.RecordBlobWrite(bucket, len(data))
	logging.Ctx(ctx).Debug().
		Str("bucket", bucket).
		Str("blob", name).
		Int("bytes", len(data)).
		Msg("Blob written")
	return nil
}

// Get reads the object stored under name in bucket.
func (s *ObjectStore) Get(ctx context.Context, bucket, name string) ([]byte, error) {
	obs, err := s.bucket(ctx, bucket)
	if err != nil {
		return nil, err
	}

	data, err := obs.GetBytes(ctx, name)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return nil, fmt.Errorf("%s/%s: %w", bucket, name, ErrBlobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, name, err)
	}
	return data, nil
}

// Watch streams updates made to bucket after the call. Existing objects are
// not replayed.
func (s *ObjectStore) Watch(ctx context.Context, bucket string) (<-chan Event, error) {
	obs, err := s.bucket(ctx, bucket)
	if err != nil {
		return nil, err
	}

	watcher, err := obs.Watch(ctx, jetstream.UpdatesOnly())
	if err != nil {
		return nil, fmt.Errorf("watch bucket %s: %w", bucket, err)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer func() {
			if err := watcher.Stop(); err != nil {
				logging.Debug().Err(err).Str("bucket", bucket).Msg("Stop object watcher")
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case info, ok := <-watcher.Updates():
				if !ok {
					return
				}
				// nil marks the end of the initial values.
				if info == nil {
					continue
				}
				event := Event{
					Bucket:  bucket,
					Name:    info.Name,
					Size:    info.Size,
					Deleted: info.Deleted,
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
