// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package eventprocessor

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Metadata keys set on every pipeline message.
const (
	MetadataEnv     = "env"
	MetadataTraceID = "trace_id"
)

// NewMessage serializes payload as JSON into a message with a fresh UUID
// and the given metadata.
func NewMessage(payload interface{}, metadata map[string]string) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	for k, v := range metadata {
		msg.Metadata.Set(k, v)
	}
	return msg, nil
}

// DecodePayload unmarshals a message payload into v.
// Decode failures are permanent: redelivering the same bytes cannot succeed.
func DecodePayload(msg *message.Message, v interface{}) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return NewPermanentError("malformed message payload", err)
	}
	return nil
}
