// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package dispatcher publishes pending cells onto the explore queue, one
// message per cell.
//
// Each message carries the cell as JSON and the metadata
//
//	env       deployment environment
//	trace_id  "{cell id}-{unix seconds}", also used as Nats-Msg-Id
//
// A publish that still fails after its retry policy is logged and counted,
// and the run moves on to the next cell. The run then ends with an error
// joining every per-cell failure. Cells that were published stay published;
// cells that were not stay pending and go out with the next run.
package dispatcher
