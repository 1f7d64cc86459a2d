// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package models

// ConvertRequest asks the NDJSON converter to flatten one stored segment batch.
// An empty BucketName means the converter's default bucket.
type ConvertRequest struct {
	BlobName   string `json:"blob_name"`
	BucketName string `json:"bucket_name,omitempty"`
}
