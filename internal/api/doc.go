// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

/*
Package api serves the worker's operations HTTP endpoints.

Routes:

	GET /api/v1/health/live      process is up
	GET /api/v1/health/ready     work-item store and NATS reachable (503 otherwise)
	GET /api/v1/cells/summary    number of cells per status
	GET /api/v1/cells            cells with ?status=pending|fetched (default pending), &limit=N
	GET /metrics                 Prometheus metrics

Every /api/v1 route is wrapped by request-id logging, panic recovery, CORS,
per-IP rate limiting (go-chi/httprate) and request metrics. Responses use the
models.APIResponse envelope; query parameters are checked with the shared
go-playground validator.
*/
package api
