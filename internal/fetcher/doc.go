// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

/*
Package fetcher turns one queued cell into one stored segment batch.

Each message moves through a fixed sequence of states:

	received -> token_ready -> fetched_from_api -> blob_written -> status_updated -> acknowledged

Process runs the sequence and reports the last state reached. Handle is the
Watermill handler: a nil return acknowledges the message, an error nacks it
and JetStream redelivers until max_deliver. Payloads that can never succeed
(undecodable JSON, coordinates out of range, unknown cell id) fail with an
eventprocessor.PermanentError and are routed to the poison topic.

Every step is idempotent under redelivery: a second fetch of the same cell
writes a new batch and SetStatus(fetched) on a fetched cell is a no-op.
*/
package fetcher
