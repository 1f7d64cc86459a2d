// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package models

import (
	"time"
)

// APIResponse is the envelope returned by every operations API endpoint.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"pending": 812, "fetched": 88},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 3}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing information.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Count       int       `json:"count,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is returned by the readiness endpoint.
type HealthStatus struct {
	Status        string            `json:"status"`
	Components    map[string]string `json:"components"`
	UptimeSeconds int64             `json:"uptime_seconds"`
}

// CellSummary holds the number of cells in each status.
type CellSummary struct {
	Pending int `json:"pending"`
	Fetched int `json:"fetched"`
	Total   int `json:"total"`
}
