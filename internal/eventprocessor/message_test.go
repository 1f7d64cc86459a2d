// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package eventprocessor

import (
	"testing"

	"github.com/tomtom215/segmenthunter/internal/models"
)

func TestNewMessage(t *testing.T) {
	t.Parallel()

	cell := models.Cell{ID: 3, SWLatitude: 0, SWLongitude: 0, NELatitude: 1, NELongitude: 1, Status: models.StatusPending}
	msg, err := NewMessage(cell, map[string]string{
		MetadataEnv:     "dev",
		MetadataTraceID: "3-1700000000",
	})
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}

	if msg.UUID == "" {
		t.Error("Expected message UUID to be set")
	}
	if got := msg.Metadata.Get(MetadataEnv); got != "dev" {
		t.Errorf("Expected env=dev, got %q", got)
	}
	if got := msg.Metadata.Get(MetadataTraceID); got != "3-1700000000" {
		t.Errorf("Expected trace_id=3-1700000000, got %q", got)
	}

	var decoded models.Cell
	if err := DecodePayload(msg, &decoded); err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if decoded != cell {
		t.Errorf("Expected decoded cell %+v, got %+v", cell, decoded)
	}
}

func TestNewMessageUniqueUUIDs(t *testing.T) {
	t.Parallel()

	a, _ := NewMessage(map[string]int{"id": 1}, nil)
	b, _ := NewMessage(map[string]int{"id": 1}, nil)
	if a.UUID == b.UUID {
		t.Error("Expected distinct UUIDs for distinct messages")
	}
}

func TestNewMessageUnmarshalable(t *testing.T) {
	t.Parallel()

	if _, err := NewMessage(make(chan int), nil); err == nil {
		t.Error("Expected error for unmarshalable payload")
	}
}

func TestDecodePayloadMalformed(t *testing.T) {
	t.Parallel()

	msg, _ := NewMessage("ignored", nil)
	msg.Payload = []byte(`{"id": `)

	var cell models.Cell
	err := DecodePayload(msg, &cell)
	if err == nil {
		t.Fatal("Expected error for malformed payload")
	}
	if !IsPermanentError(err) {
		t.Errorf("Expected PermanentError, got %T", err)
	}
}
