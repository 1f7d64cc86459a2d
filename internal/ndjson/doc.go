// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package ndjson flattens stored segment batches into newline-delimited JSON.
//
// Convert is a pure transform. Converter applies it to blobs named in
// queue messages and Notifier produces those messages as new raw blobs land
// in the bucket.
//
// For the batch
//
//	{"segments": [{"a": 1}, {"b": 2}], "time_fetched": 100}
//
// the output is two lines with no trailing newline:
//
//	{"a":1,"time_fetched":100}
//	{"b":2,"time_fetched":100}
//
// Keys are written in sorted order and HTML characters are not escaped.
package ndjson
