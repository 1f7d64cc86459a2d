// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package blobstore

import (
	"context"
	"errors"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/segmenthunter/internal/eventprocessor"
)

func setupObjectStore(t *testing.T) *ObjectStore {
	t.Helper()

	srv, err := eventprocessor.NewEmbeddedServer(&eventprocessor.ServerConfig{
		Host:              "127.0.0.1",
		Port:              -1,
		StoreDir:          t.TempDir(),
		JetStreamMaxMem:   16 << 20,
		JetStreamMaxStore: 128 << 20,
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
	return NewObjectStore(js)
}

func TestObjectStorePutGet(t *testing.T) {
	t.Parallel()

	store := setupObjectStore(t)
	ctx := context.Background()

	name := "[0.0,0.0,1.0,1.0]__1700000000.json"
	data := []byte(`{"segments":[{"id":5}],"time_fetched":1700000000}`)

	if err := store.Put(ctx, "explored-segments", name, data, ContentTypeJSON); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "explored-segments", name)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Expected %s, got %s", data, got)
	}
}

func TestObjectStoreOverwrite(t *testing.T) {
	t.Parallel()

	store := setupObjectStore(t)
	ctx := context.Background()

	for _, body := range []string{"first", "second"} {
		if err := store.Put(ctx, "explored-segments", "cell.json", []byte(body), ContentTypeJSON); err != nil {
			t.Fatalf("Put(%s) error = %v", body, err)
		}
	}

	got, err := store.Get(ctx, "explored-segments", "cell.json")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Expected second write to win, got %q", got)
	}
}

func TestObjectStoreGetMissing(t *testing.T) {
	t.Parallel()

	store := setupObjectStore(t)

	_, err := store.Get(context.Background(), "explored-segments", "missing.json")
	if !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("Expected ErrBlobNotFound, got %v", err)
	}
}

func TestObjectStoreWatch(t *testing.T) {
	t.Parallel()

	store := setupObjectStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Objects written before the watch starts are not replayed.
	if err := store.Put(ctx, "explored-segments", "old.json", []byte("{}"), ContentTypeJSON); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	events, err := store.Watch(ctx, "explored-segments")
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := store.Put(ctx, "explored-segments", "new.json", []byte(`{"segments":[]}`), ContentTypeJSON); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	select {
	case event := <-events:
		if event.Name != "new.json" {
			t.Errorf("Expected event for new.json, got %s", event.Name)
		}
		if event.Bucket != "explored-segments" {
			t.Errorf("Expected bucket explored-segments, got %s", event.Bucket)
		}
		if event.Deleted {
			t.Error("Expected non-deleted event")
		}
		if event.Size != uint64(len(`{"segments":[]}`)) {
			t.Errorf("Expected size %d, got %d", len(`{"segments":[]}`), event.Size)
		}
	case <-ctx.Done():
		t.Fatal("No watch event received")
	}

	cancel()
	for range events {
	}
}
