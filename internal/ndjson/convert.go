// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package ndjson

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// FieldTimeFetched is the batch field merged into every output line.
const FieldTimeFetched = "time_fetched"

var (
	// ErrMalformedJSON is returned when a batch is not a JSON object.
	ErrMalformedJSON = errors.New("malformed JSON document")

	// ErrInvalidSegment is returned when a segment is not a JSON object.
	ErrInvalidSegment = errors.New("segment is not a JSON object")
)

// Convert renders the segments of doc as NDJSON. ok is false when there is
// nothing to write: segments absent, null, not a list, or empty. doc is not
// modified.
func Convert(doc map[string]interface{}) (out string, ok bool, err error) {
	segments, isList := doc["segments"].([]interface{})
	if !isList || len(segments) == 0 {
		return "", false, nil
	}

	// A null time_fetched is treated as absent.
	timeFetched, hasTime := doc[FieldTimeFetched]
	hasTime = hasTime && timeFetched != nil

	lines := make([]string, 0, len(segments))
	for i, raw := range segments {
		seg, isObject := raw.(map[string]interface{})
		if !isObject {
			return "", false, fmt.Errorf("segment %d: %w", i, ErrInvalidSegment)
		}

		line := make(map[string]interface{}, len(seg)+1)
		for k, v := range seg {
			line[k] = v
		}
		if hasTime {
			line[FieldTimeFetched] = timeFetched
		}

		encoded, err := encodeCompact(line)
		if err != nil {
			return "", false, fmt.Errorf("encode segment %d: %w", i, err)
		}
		lines = append(lines, encoded)
	}

	return strings.Join(lines, "\n"), true, nil
}

// ConvertBytes decodes a batch, keeping numbers exact, and converts it.
func ConvertBytes(data []byte) (string, bool, error) {
	var doc map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if doc == nil {
		return "", false, fmt.Errorf("%w: not an object", ErrMalformedJSON)
	}
	return Convert(doc)
}

// CountLines returns the number of records in an NDJSON string.
func CountLines(ndjson string) int {
	if ndjson == "" {
		return 0
	}
	return strings.Count(ndjson, "\n") + 1
}

func encodeCompact(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
