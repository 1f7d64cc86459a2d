// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package secretstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/segmenthunter/internal/config"
)

// ErrSecretNotFound is returned when no secret exists under the requested name.
var ErrSecretNotFound = errors.New("secret not found")

// Backend names accepted by Open.
const (
	BackendNATS   = "nats"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Store reads and writes secrets by name. Put replaces the current value.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	Put(ctx context.Context, name, value string) error
	Close() error
}

// Open returns the backend selected by cfg. js is only used by the nats
// backend and may be nil otherwise.
func Open(ctx context.Context, cfg *config.SecretsConfig, js jetstream.JetStream) (Store, error) {
	switch cfg.Backend {
	case BackendNATS, "":
		if js == nil {
			return nil, errors.New("nats secret backend requires a JetStream connection")
		}
		return NewKVStore(ctx, js, cfg.KVBucket)
	case BackendBadger:
		return NewBadgerStore(cfg.BadgerPath)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported secret backend %q", cfg.Backend)
	}
}

// MemoryStore keeps secrets in a map.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.secrets[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrSecretNotFound)
	}
	return v, nil
}

func (m *MemoryStore) Put(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[name] = value
	return nil
}

func (m *MemoryStore) Close() error { return nil }
