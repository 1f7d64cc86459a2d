// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package secretstore keeps named secret strings such as OAuth client
// credentials and tokens.
//
// Backends:
//   - KVStore: NATS JetStream key-value bucket, shared by every process
//     connected to the broker
//   - BadgerStore: local BadgerDB directory, or in memory when no path is set
//   - MemoryStore: process-local map for tests
//
// Secret names follow the "{kind}--{env}" convention, for example
// "strava-refresh-token--prod".
package secretstore
