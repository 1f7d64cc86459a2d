// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatcher Metrics
	CellsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "segmenthunter_cells_dispatched_total",
			Help: "Cells handed to the queue by the dispatcher",
		},
		[]string{"result"}, // "published", "failed"
	)

	PublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "segmenthunter_publish_retries_total",
			Help: "Publish attempts that failed and were retried",
		},
	)

	// Queue Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of messages published to NATS",
		},
	)

	NATSMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of messages received by queue handlers",
		},
		[]string{"handler"},
	)

	// Fetcher Metrics
	FetchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "segmenthunter_fetch_outcomes_total",
			Help: "Fetch messages by the last state reached",
		},
		[]string{"state", "result"}, // result: "success", "failure"
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "segmenthunter_fetch_duration_seconds",
			Help:    "Time to process one fetch message, retries included",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	FetchRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "segmenthunter_fetch_retries_total",
			Help: "Segment API calls that failed and were retried",
		},
	)

	// Segment API Metrics
	StravaRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strava_requests_total",
			Help: "Requests sent to the Strava API",
		},
		[]string{"endpoint", "status_class"}, // status_class: "2xx", "4xx", "5xx", "error"
	)

	StravaRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strava_request_duration_seconds",
			Help:    "Duration of Strava API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "segmenthunter_token_refreshes_total",
			Help: "OAuth access token refreshes",
		},
		[]string{"result"}, // "success", "failure"
	)

	// Blob Metrics
	BlobsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "segmenthunter_blobs_written_total",
			Help: "Objects written to the blob store",
		},
		[]string{"bucket"},
	)

	BlobBytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "segmenthunter_blob_bytes_written_total",
			Help: "Bytes written to the blob store",
		},
		[]string{"bucket"},
	)

	// NDJSON Metrics
	NDJSONConversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "segmenthunter_ndjson_conversions_total",
			Help: "NDJSON conversion requests by outcome",
		},
		[]string{"outcome"}, // "converted", "empty", "skipped", "abandoned", "failed"
	)

	NDJSONSegments = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "segmenthunter_ndjson_segments_total",
			Help: "Segments written as NDJSON lines",
		},
	)

	// Work-item Metrics
	CellsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "segmenthunter_cells",
			Help: "Cells in the work-item table by status",
		},
		[]string{"status"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests served by the operations API",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Operations API request latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Operations API requests currently being served",
		},
	)

	// Application Info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDispatch records the outcome of publishing one cell.
func RecordDispatch(published bool) {
	if published {
		CellsDispatched.WithLabelValues("published").Inc()
	} else {
		CellsDispatched.WithLabelValues("failed").Inc()
	}
}

// RecordPublishRetry records a failed publish attempt that will be retried.
func RecordPublishRetry() {
	PublishRetries.Inc()
}

// RecordNATSPublish records a message being published to NATS
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSConsume records a message being consumed by a handler
func RecordNATSConsume(handler string) {
	NATSMessagesConsumed.WithLabelValues(handler).Inc()
}

// RecordFetch records the last state a fetch message reached and its duration.
func RecordFetch(state string, err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	FetchOutcomes.WithLabelValues(state, result).Inc()
	FetchDuration.Observe(duration.Seconds())
}

// RecordFetchRetry records a failed segment API call that will be retried.
func RecordFetchRetry() {
	FetchRetries.Inc()
}

// RecordStravaRequest records one Strava API request. statusCode 0 means the
// request failed before a response was received.
func RecordStravaRequest(endpoint string, statusCode int, duration time.Duration) {
	StravaRequestsTotal.WithLabelValues(endpoint, StatusClass(statusCode)).Inc()
	StravaRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// StatusClass maps an HTTP status code to "2xx", "4xx" and so on.
func StatusClass(statusCode int) string {
	if statusCode < 100 || statusCode > 599 {
		return "error"
	}
	return strconv.Itoa(statusCode/100) + "xx"
}

// RecordTokenRefresh records an OAuth refresh.
func RecordTokenRefresh(err error) {
	if err != nil {
		TokenRefreshes.WithLabelValues("failure").Inc()
		return
	}
	TokenRefreshes.WithLabelValues("success").Inc()
}

// RecordBlobWrite records an object written to bucket.
func RecordBlobWrite(bucket string, size int) {
	BlobsWritten.WithLabelValues(bucket).Inc()
	BlobBytesWritten.WithLabelValues(bucket).Add(float64(size))
}

// RecordNDJSONConversion records a conversion outcome and the segments it wrote.
func RecordNDJSONConversion(outcome string, segments int) {
	NDJSONConversions.WithLabelValues(outcome).Inc()
	if segments > 0 {
		NDJSONSegments.Add(float64(segments))
	}
}

// UpdateCellsByStatus sets the work-item gauge from a status count map.
func UpdateCellsByStatus(counts map[string]int) {
	for status, n := range counts {
		CellsByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// RecordCircuitBreakerTransition records a breaker state change.
// States use gobreaker's names: "closed", "half-open", "open".
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(circuitStateValue(to))
}

func circuitStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// SetAppInfo publishes the build version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// UpdateUptime sets the uptime gauge from the process start time.
func UpdateUptime(start time.Time) {
	AppUptime.Set(time.Since(start).Seconds())
}
