// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package database

import (
	"context"
	"time"
)

// schemaContext returns a context with timeout for schema initialization.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

var duckdbSchema = []string{
	`CREATE SEQUENCE IF NOT EXISTS bounding_boxes_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS bounding_boxes (
		id BIGINT PRIMARY KEY DEFAULT nextval('bounding_boxes_id_seq'),
		sw_latitude DOUBLE NOT NULL,
		sw_longitude DOUBLE NOT NULL,
		ne_latitude DOUBLE NOT NULL,
		ne_longitude DOUBLE NOT NULL,
		status VARCHAR NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'fetched'))
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS bounding_boxes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sw_latitude REAL NOT NULL,
		sw_longitude REAL NOT NULL,
		ne_latitude REAL NOT NULL,
		ne_longitude REAL NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'fetched'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bounding_boxes_status ON bounding_boxes(status)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS bounding_boxes (
		id BIGSERIAL PRIMARY KEY,
		sw_latitude DOUBLE PRECISION NOT NULL,
		sw_longitude DOUBLE PRECISION NOT NULL,
		ne_latitude DOUBLE PRECISION NOT NULL,
		ne_longitude DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'fetched'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bounding_boxes_status ON bounding_boxes(status)`,
}
