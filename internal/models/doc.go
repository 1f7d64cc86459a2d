// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

/*
Package models defines the data structures shared across Segment Hunter.

The package is the single source of truth for the shapes that cross package
and process boundaries: rows of the work-item table, queue payloads, stored
credentials, and HTTP response envelopes.

Key Components:

  - Cell: one rectangular sub-region of the exploration area with its fetch status
  - Status: the two-value cell lifecycle (pending, fetched)
  - Credential: the OAuth token tuple kept in the secret store
  - ConvertRequest: payload of the NDJSON conversion pipeline
  - APIResponse: envelope returned by the operations HTTP API

Cell Lifecycle:

Cells are created once, in bulk, by the seeder. Every seeded cell starts as
StatusPending and moves to StatusFetched exactly once, after its segment data
has been written to the blob store. The transition is monotonic:

	pending --(fetcher: blob written)--> fetched

Wire Format:

A Cell is serialized as JSON with snake_case field names. The same document is
used as the queue payload and as the API representation:

	{
	  "id": 42,
	  "sw_latitude": 51.45,
	  "sw_longitude": -1.15,
	  "ne_latitude": 51.46,
	  "ne_longitude": -1.14,
	  "status": "pending"
	}

Thread Safety:

All types in this package are plain values with no internal synchronization.
Callers sharing a value across goroutines must synchronize access themselves.
*/
package models
