// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package blobstore

import (
	"context"
	"errors"
)

// ErrBlobNotFound is returned when a bucket holds no object with the requested name.
var ErrBlobNotFound = errors.New("blob not found")

// ContentTypeJSON and ContentTypeNDJSON are the content types written by the pipeline.
const (
	ContentTypeJSON   = "application/json"
	ContentTypeNDJSON = "application/x-ndjson"
)

// Store reads and writes named objects.
type Store interface {
	// Put writes data under name, replacing any existing object.
	Put(ctx context.Context, bucket, name string, data []byte, contentType string) error

	// Get returns the object data or ErrBlobNotFound.
	Get(ctx context.Context, bucket, name string) ([]byte, error)
}

// Event describes a change to an object in a watched bucket.
type Event struct {
	Bucket  string
	Name    string
	Size    uint64
	Deleted bool
}

// Watcher streams object changes of a bucket. The channel is closed when
// ctx is cancelled.
type Watcher interface {
	Watch(ctx context.Context, bucket string) (<-chan Event, error)
}
