// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package secretstore

import (
	"context"
	"errors"
	"testing"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/segmenthunter/internal/config"
	"github.com/tomtom215/segmenthunter/internal/eventprocessor"
)

func setupJetStream(t *testing.T) jetstream.JetStream {
	t.Helper()

	srv, err := eventprocessor.NewEmbeddedServer(&eventprocessor.ServerConfig{
		Host:              "127.0.0.1",
		Port:              -1,
		StoreDir:          t.TempDir(),
		JetStreamMaxMem:   16 << 20,
		JetStreamMaxStore: 64 << 20,
		Quiet:             true,
	})
	if err != nil {
		t.Fatalf("Failed to start NATS server: %v", err)
	}
	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		_ = srv.Shutdown(context.Background())
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() {
		nc.Close()
		_ = srv.Shutdown(context.Background())
	})

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("Failed to create JetStream context: %v", err)
	}
	return js
}

// storeFactories returns one constructor per backend.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"badger-memory": func(t *testing.T) Store {
			s, err := NewBadgerStore("")
			if err != nil {
				t.Fatalf("NewBadgerStore() error = %v", err)
			}
			return s
		},
		"badger-disk": func(t *testing.T) Store {
			s, err := NewBadgerStore(t.TempDir())
			if err != nil {
				t.Fatalf("NewBadgerStore() error = %v", err)
			}
			return s
		},
		"nats-kv": func(t *testing.T) Store {
			s, err := NewKVStore(context.Background(), setupJetStream(t), "secrets")
			if err != nil {
				t.Fatalf("NewKVStore() error = %v", err)
			}
			return s
		},
	}
}

func TestStoreBackends(t *testing.T) {
	t.Parallel()

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			if _, err := store.Get(ctx, "strava-client-id--dev"); !errors.Is(err, ErrSecretNotFound) {
				t.Errorf("Expected ErrSecretNotFound for missing secret, got %v", err)
			}

			if err := store.Put(ctx, "strava-client-id--dev", "12345"); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			got, err := store.Get(ctx, "strava-client-id--dev")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got != "12345" {
				t.Errorf("Expected 12345, got %q", got)
			}

			// Put replaces the current version.
			if err := store.Put(ctx, "strava-client-id--dev", "67890"); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if got, _ := store.Get(ctx, "strava-client-id--dev"); got != "67890" {
				t.Errorf("Expected 67890 after overwrite, got %q", got)
			}
		})
	}
}

func TestBadgerStoreSurvivesReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatalf("NewBadgerStore() error = %v", err)
	}
	if err := first.Put(ctx, "strava-refresh-token--prod", "r-1"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatalf("Reopen error = %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "strava-refresh-token--prod")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "r-1" {
		t.Errorf("Expected r-1, got %q", got)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("badger", func(t *testing.T) {
		t.Parallel()
		store, err := Open(ctx, &config.SecretsConfig{Backend: BackendBadger}, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer store.Close()
		if _, ok := store.(*BadgerStore); !ok {
			t.Errorf("Expected *BadgerStore, got %T", store)
		}
	})

	t.Run("nats without jetstream", func(t *testing.T) {
		t.Parallel()
		if _, err := Open(ctx, &config.SecretsConfig{Backend: BackendNATS, KVBucket: "secrets"}, nil); err == nil {
			t.Error("Expected error without JetStream")
		}
	})

	t.Run("nats", func(t *testing.T) {
		t.Parallel()
		store, err := Open(ctx, &config.SecretsConfig{Backend: BackendNATS, KVBucket: "secrets"}, setupJetStream(t))
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if _, ok := store.(*KVStore); !ok {
			t.Errorf("Expected *KVStore, got %T", store)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		if _, err := Open(ctx, &config.SecretsConfig{Backend: "vault"}, nil); err == nil {
			t.Error("Expected error for unknown backend")
		}
	})
}
