// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package database

import (
	"errors"
	"io"
	"log/slog"

	"github.com/tomtom215/segmenthunter/internal/logging"
)

var (
	// ErrCellNotFound is returned by SetStatus when no row has the given id.
	ErrCellNotFound = errors.New("cell not found")

	// ErrInvalidTransition is returned when a status change would move a cell
	// backwards (fetched to pending).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidStatus is returned for a status outside pending and fetched.
	ErrInvalidStatus = errors.New("invalid cell status")

	// ErrUnsupportedDriver is returned by Open for an unknown database driver.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// closeWithLog closes a resource and logs any error
// Use this for cleanup operations where errors should be acknowledged but not fail the operation
func closeWithLog(closer io.Closer, logger *slog.Logger, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		if logger != nil {
			logger.Error("failed to close resource",
				"type", resourceType,
				"error", err)
		} else {
			logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
		}
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Used in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
