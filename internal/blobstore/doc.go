// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package blobstore stores segment batches and their NDJSON conversions as
// named objects grouped in buckets.
//
// ObjectStore keeps objects in NATS JetStream Object Store buckets, so the
// worker needs no storage service beyond the broker it already runs.
// Writing an existing name replaces the object, which keeps redelivered
// fetches harmless. Watch streams object updates and drives the NDJSON
// notifier.
//
// MemoryStore implements the same surface in process for tests.
package blobstore
