// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/segmenthunter/internal/models"
)

const readinessTimeout = 5 * time.Second

// HealthLive returns 200 while the process is running.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]interface{}{
		"alive":          true,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	}, time.Now(), 0)
}

// HealthReady returns 200 when the work-item store and the NATS connection
// respond, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	components := map[string]string{
		"database": componentStatus(ctx, h.store),
	}
	if h.broker != nil {
		components["nats"] = componentStatus(ctx, h.broker)
	}

	status := "ready"
	code := http.StatusOK
	for _, s := range components {
		if s != "ok" {
			status = "not_ready"
			code = http.StatusServiceUnavailable
			break
		}
	}

	respondJSON(w, code, &models.APIResponse{
		Status: status,
		Data: models.HealthStatus{
			Status:        status,
			Components:    components,
			UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

func componentStatus(ctx context.Context, p Pinger) string {
	if p == nil {
		return "unavailable"
	}
	if err := p.Ping(ctx); err != nil {
		return "unavailable"
	}
	return "ok"
}
