// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package eventprocessor

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// startTestBroker runs an embedded JetStream server on a random port.
func startTestBroker(t *testing.T) (*Broker, func() *SubscriberConfig) {
	t.Helper()

	n := testNATSConfig("nats://127.0.0.1:0")
	n.StoreDir = t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	broker, err := StartBroker(ctx, n, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("StartBroker() error = %v", err)
	}
	t.Cleanup(func() {
		if err := broker.Close(context.Background()); err != nil {
			t.Errorf("Broker.Close() error = %v", err)
		}
	})

	return broker, func() *SubscriberConfig {
		cfg := SubscriberConfigFrom(n, broker.URL(), "test")
		cfg.SubscribersCount = 1
		return &cfg
	}
}

func TestEmbeddedServer(t *testing.T) {
	t.Parallel()

	srv, err := NewEmbeddedServer(&ServerConfig{
		Host:              "127.0.0.1",
		Port:              -1,
		StoreDir:          t.TempDir(),
		JetStreamMaxMem:   16 << 20,
		JetStreamMaxStore: 64 << 20,
		Quiet:             true,
	})
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}

	if !srv.IsRunning() {
		t.Error("Expected server to be running")
	}
	if !srv.JetStreamEnabled() {
		t.Error("Expected JetStream to be enabled")
	}
	if srv.ClientURL() == "" {
		t.Error("Expected non-empty client URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if srv.IsRunning() {
		t.Error("Expected server to be stopped after Shutdown")
	}
}

func TestNewEmbeddedServer_NilConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewEmbeddedServer(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestBrokerEnsuresStream(t *testing.T) {
	t.Parallel()

	broker, _ := startTestBroker(t)
	ctx := context.Background()

	if err := broker.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	stream, err := broker.JetStream().Stream(ctx, "SEGMENT_HUNTER_TEST")
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	info := stream.CachedInfo()
	if info.Config.Duplicates != time.Minute {
		t.Errorf("Expected duplicate window 1m, got %v", info.Config.Duplicates)
	}

	// A second initializer with a changed setting updates the stream in place.
	cfg := StreamConfigFrom(testNATSConfig(broker.URL()))
	cfg.MaxAge = 2 * time.Hour
	init, err := NewStreamInitializer(broker.JetStream(), &cfg)
	if err != nil {
		t.Fatalf("NewStreamInitializer() error = %v", err)
	}
	updated, err := init.EnsureStream(ctx)
	if err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}
	if updated.CachedInfo().Config.MaxAge != 2*time.Hour {
		t.Errorf("Expected MaxAge 2h after update, got %v", updated.CachedInfo().Config.MaxAge)
	}
	if !init.IsHealthy(ctx) {
		t.Error("Expected stream to be healthy")
	}
}

func TestNewStreamInitializer_Validation(t *testing.T) {
	t.Parallel()

	cfg := DefaultStreamConfig()
	if _, err := NewStreamInitializer(nil, &cfg); err == nil {
		t.Error("Expected error for nil JetStream context")
	}

	broker, _ := startTestBroker(t)
	empty := StreamConfig{Name: "EMPTY"}
	if _, err := NewStreamInitializer(broker.JetStream(), &empty); err == nil {
		t.Error("Expected error for config without subjects")
	}
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	t.Parallel()

	broker, subscriberConfig := startTestBroker(t)

	pub, err := NewPublisher(DefaultPublisherConfig(broker.URL()), watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer pub.Close()
	pub.SetCircuitBreaker(NewCircuitBreaker(DefaultCircuitBreakerConfig("round-trip")))

	sub, err := NewSubscriber(subscriberConfig(), watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewSubscriber() error = %v", err)
	}
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	messages, err := sub.Subscribe(ctx, "cells.explore")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	msg, _ := NewMessage(map[string]int{"id": 9}, map[string]string{
		MetadataEnv:     "test",
		MetadataTraceID: "9-1700000000",
	})
	msg.UUID = "9-1700000000"
	if err := pub.Publish(ctx, "cells.explore", msg); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	// Same Nats-Msg-Id inside the duplicate window: stored once.
	dup, _ := NewMessage(map[string]int{"id": 9}, map[string]string{MetadataTraceID: "9-1700000000"})
	dup.UUID = "9-1700000000"
	if err := pub.Publish(ctx, "cells.explore", dup); err != nil {
		t.Fatalf("Publish(duplicate) error = %v", err)
	}

	var got *message.Message
	select {
	case got = <-messages:
		got.Ack()
	case <-ctx.Done():
		t.Fatal("No message received")
	}

	if got.Metadata.Get(MetadataTraceID) != "9-1700000000" {
		t.Errorf("Expected trace id 9-1700000000, got %q", got.Metadata.Get(MetadataTraceID))
	}
	if got.Metadata.Get(MetadataEnv) != "test" {
		t.Errorf("Expected env=test, got %q", got.Metadata.Get(MetadataEnv))
	}
	if string(got.Payload) != `{"id":9}` {
		t.Errorf("Expected payload {\"id\":9}, got %s", got.Payload)
	}

	stream, err := broker.JetStream().Stream(ctx, "SEGMENT_HUNTER_TEST")
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.State.Msgs != 1 {
		t.Errorf("Expected 1 stored message after duplicate publish, got %d", info.State.Msgs)
	}
}

func TestPublisherClosed(t *testing.T) {
	t.Parallel()

	broker, _ := startTestBroker(t)

	pub, err := NewPublisher(DefaultPublisherConfig(broker.URL()), watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("Second Close() should be a no-op, got %v", err)
	}

	msg, _ := NewMessage(map[string]int{"id": 1}, nil)
	if err := pub.Publish(context.Background(), "cells.explore", msg); err != ErrPublisherClosed {
		t.Errorf("Expected ErrPublisherClosed, got %v", err)
	}
}
