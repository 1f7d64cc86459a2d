// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/segmenthunter/internal/metrics"
	"github.com/tomtom215/segmenthunter/internal/models"
)

const (
	defaultCellsLimit = 1000
	summaryCacheKey   = "cells:summary"
)

// CellsRequest holds the query parameters of GET /api/v1/cells.
type CellsRequest struct {
	Status string `json:"status" validate:"required,cell_status"`
	Limit  int    `json:"limit" validate:"gte=1,lte=10000"`
}

// CellSummary returns the number of cells in each status and refreshes the
// cells-by-status gauge. Counts are cached for summaryTTL.
func (h *Handler) CellSummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if cached, ok := h.cache.Get(summaryCacheKey); ok {
		respondSuccess(w, cached, start, 0)
		return
	}

	counts, err := h.store.CountByStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeDatabaseError, "Failed to count cells", err)
		return
	}

	gauge := make(map[string]int, len(counts))
	for status, n := range counts {
		gauge[status.String()] = n
	}
	metrics.UpdateCellsByStatus(gauge)

	summary := models.CellSummary{
		Pending: counts[models.StatusPending],
		Fetched: counts[models.StatusFetched],
	}
	summary.Total = summary.Pending + summary.Fetched
	h.cache.Set(summaryCacheKey, summary)

	respondSuccess(w, summary, start, 0)
}

// Cells lists cells with one status, ordered by id.
func (h *Handler) Cells(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	req := CellsRequest{
		Status: strings.ToLower(strings.TrimSpace(q.Get("status"))),
		Limit:  defaultCellsLimit,
	}
	if req.Status == "" {
		req.Status = models.StatusPending.String()
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "limit must be an integer", nil)
			return
		}
		req.Limit = n
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now().UTC()},
			Error:    apiErr,
		})
		return
	}

	cells, err := h.store.ListByStatus(r.Context(), models.Status(req.Status))
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeDatabaseError, "Failed to list cells", err)
		return
	}
	if len(cells) > req.Limit {
		cells = cells[:req.Limit]
	}

	respondSuccess(w, cells, start, len(cells))
}
