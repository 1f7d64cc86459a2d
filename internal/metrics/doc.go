// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

/*
Package metrics provides Prometheus metrics for Segment Hunter.

All collectors are registered with the default registry through promauto and
are exposed by the operations API at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

Pipeline:
  - segmenthunter_cells_dispatched_total{result}: cells published or failed
  - segmenthunter_publish_retries_total: publish attempts retried
  - segmenthunter_fetch_outcomes_total{state,result}: last fetch state reached
  - segmenthunter_fetch_duration_seconds: per-message fetch time
  - segmenthunter_fetch_retries_total: segment API calls retried
  - segmenthunter_blobs_written_total{bucket}, segmenthunter_blob_bytes_written_total{bucket}
  - segmenthunter_ndjson_conversions_total{outcome}, segmenthunter_ndjson_segments_total
  - segmenthunter_token_refreshes_total{result}
  - segmenthunter_cells{status}: work-item table snapshot

External API:
  - strava_requests_total{endpoint,status_class}
  - strava_request_duration_seconds{endpoint}

Queue:
  - nats_messages_published_total
  - nats_messages_consumed_total{handler}
  - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - circuit_breaker_state_transitions_total{name,from_state,to_state}

HTTP:
  - http_requests_total{method,endpoint,status}
  - http_request_duration_seconds{method,endpoint}
  - http_requests_in_flight

Use the RecordX helpers rather than touching collectors directly so label
values stay consistent.
*/
package metrics
