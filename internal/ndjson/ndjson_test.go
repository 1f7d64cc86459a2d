// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package ndjson

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/segmenthunter/internal/blobstore"
	"github.com/tomtom215/segmenthunter/internal/eventprocessor"
	"github.com/tomtom215/segmenthunter/internal/models"
)

const (
	testBucket = "explored-segments"
	testPrefix = "explored_segments_ndjson"
)

func TestConverterProcess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	c := NewConverter(store, testBucket, testPrefix)

	raw := "[0.0,0.0,1.0,1.0]__100.json"
	if err := store.Put(ctx, testBucket, raw, []byte(`{"segments":[{"a":1}],"time_fetched":100}`), blobstore.ContentTypeJSON); err != nil {
		t.Fatal(err)
	}

	outcome, err := c.Process(ctx, models.ConvertRequest{BlobName: raw})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if outcome != OutcomeConverted {
		t.Fatalf("Expected outcome %q, got %q", OutcomeConverted, outcome)
	}

	out := testPrefix + "/" + raw
	data, err := store.Get(ctx, testBucket, out)
	if err != nil {
		t.Fatalf("Expected output blob %s: %v", out, err)
	}
	if string(data) != `{"a":1,"time_fetched":100}` {
		t.Errorf("Unexpected output %q", data)
	}
	if ct := store.ContentType(testBucket, out); ct != blobstore.ContentTypeNDJSON {
		t.Errorf("Expected content type %s, got %s", blobstore.ContentTypeNDJSON, ct)
	}
}

func TestConverterProcessOutcomes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	c := NewConverter(store, testBucket, testPrefix)

	_ = store.Put(ctx, testBucket, "empty.json", []byte(`{"segments":[]}`), blobstore.ContentTypeJSON)
	_ = store.Put(ctx, "other", "x.json", []byte(`{"segments":[{"b":2}]}`), blobstore.ContentTypeJSON)
	_ = store.Put(ctx, testBucket, "bad.json", []byte(`{oops`), blobstore.ContentTypeJSON)

	tests := []struct {
		name      string
		req       models.ConvertRequest
		want      string
		permanent bool
	}{
		{name: "missing blob name", req: models.ConvertRequest{}, want: OutcomeAbandoned},
		{name: "empty batch", req: models.ConvertRequest{BlobName: "empty.json"}, want: OutcomeEmpty},
		{name: "already converted", req: models.ConvertRequest{BlobName: testPrefix + "/a.json"}, want: OutcomeSkipped},
		{name: "explicit bucket", req: models.ConvertRequest{BlobName: "x.json", BucketName: "other"}, want: OutcomeConverted},
		{name: "malformed", req: models.ConvertRequest{BlobName: "bad.json"}, want: OutcomeFailed, permanent: true},
		{name: "missing blob", req: models.ConvertRequest{BlobName: "gone.json"}, want: OutcomeFailed, permanent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Process(ctx, tt.req)
			if got != tt.want {
				t.Errorf("Expected outcome %q, got %q", tt.want, got)
			}
			if tt.permanent != eventprocessor.IsPermanentError(err) {
				t.Errorf("Expected permanent=%v, got err %v", tt.permanent, err)
			}
			if !tt.permanent && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}

	if names := store.Names(testBucket); contains(names, testPrefix+"/empty.json") {
		t.Error("Expected no output for an empty batch")
	}
	if _, err := store.Get(ctx, "other", testPrefix+"/x.json"); err != nil {
		t.Errorf("Expected output in the requested bucket: %v", err)
	}
}

func TestConverterHandle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	c := NewConverter(store, testBucket, testPrefix)
	_ = store.Put(ctx, testBucket, "a.json", []byte(`{"segments":[{"a":1}]}`), blobstore.ContentTypeJSON)

	msg, err := eventprocessor.NewMessage(models.ConvertRequest{BlobName: "a.json"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Handle(msg); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if _, err := store.Get(ctx, testBucket, testPrefix+"/a.json"); err != nil {
		t.Errorf("Expected converted blob: %v", err)
	}

	bad := message.NewMessage("1", []byte("not json"))
	if err := c.Handle(bad); !eventprocessor.IsPermanentError(err) {
		t.Errorf("Expected permanent error for undecodable payload, got %v", err)
	}
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*message.Message
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, msg *message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

func TestNotifierWants(t *testing.T) {
	t.Parallel()

	n := NewNotifier(nil, nil, NewConverter(nil, testBucket, testPrefix), testBucket, "blobs.convert")

	tests := []struct {
		event blobstore.Event
		want  bool
	}{
		{blobstore.Event{Name: "[0.0,0.0,1.0,1.0]__1.json"}, true},
		{blobstore.Event{Name: "a.json", Deleted: true}, false},
		{blobstore.Event{Name: "a.txt"}, false},
		{blobstore.Event{Name: testPrefix + "/a.json"}, false},
	}

	for _, tt := range tests {
		if got := n.Wants(tt.event); got != tt.want {
			t.Errorf("Wants(%+v) = %v, want %v", tt.event, got, tt.want)
		}
	}
}

func TestNotifierRun(t *testing.T) {
	t.Parallel()

	store := blobstore.NewMemoryStore()
	pub := &recordingPublisher{}
	c := NewConverter(store, testBucket, testPrefix)
	n := NewNotifier(store, pub, c, testBucket, "blobs.convert")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	// Retry the first put until the watcher is registered.
	deadline := time.Now().Add(5 * time.Second)
	for pub.count() == 0 && time.Now().Before(deadline) {
		_ = store.Put(ctx, testBucket, "a.json", []byte(`{}`), blobstore.ContentTypeJSON)
		time.Sleep(10 * time.Millisecond)
	}
	if pub.count() == 0 {
		t.Fatal("Expected a convert request to be published")
	}

	_ = store.Put(ctx, testBucket, testPrefix+"/a.json", []byte(`{}`), blobstore.ContentTypeNDJSON)
	_ = store.Put(ctx, testBucket, "notes.txt", []byte(`x`), "text/plain")

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	for _, msg := range pub.msgs {
		var req models.ConvertRequest
		if err := eventprocessor.DecodePayload(msg, &req); err != nil {
			t.Fatal(err)
		}
		if req.BlobName != "a.json" || req.BucketName != testBucket {
			t.Errorf("Unexpected request %+v", req)
		}
		if got := msg.Metadata.Get(eventprocessor.MetadataTraceID); got != "a.json" {
			t.Errorf("Expected trace id a.json, got %q", got)
		}
		if msg.UUID != testBucket+"/a.json" {
			t.Errorf("Expected stable message id, got %q", msg.UUID)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
