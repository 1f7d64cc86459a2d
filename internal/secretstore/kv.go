// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package secretstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// KVStore keeps secrets in a JetStream key-value bucket.
type KVStore struct {
	kv jetstream.KeyValue
}

// NewKVStore opens the bucket, creating it when missing. Only the latest
// value of each key is retained.
func NewKVStore(ctx context.Context, js jetstream.JetStream, bucket string) (*KVStore, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Segment Hunter secrets",
		History:     1,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("open secret bucket %s: %w", bucket, err)
	}
	return &KVStore{kv: kv}, nil
}

// Get returns the latest value of name.
func (s *KVStore) Get(ctx context.Context, name string) (string, error) {
	entry, err := s.kv.Get(ctx, name)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return "", fmt.Errorf("%s: %w", name, ErrSecretNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	return string(entry.Value()), nil
}

// Put stores value under name.
func (s *KVStore) Put(ctx context.Context, name, value string) error {
	if _, err := s.kv.Put(ctx, name, []byte(value)); err != nil {
		return fmt.Errorf("put secret %s: %w", name, err)
	}
	return nil
}

// Close is a no-op; the connection belongs to the broker.
func (s *KVStore) Close() error {
	return nil
}
