// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package fetcher

// State is a step of the per-message fetch sequence.
type State int

const (
	StateReceived State = iota
	StateTokenReady
	StateFetchedFromAPI
	StateBlobWritten
	StateStatusUpdated
	StateAcknowledged
)

var stateNames = [...]string{
	StateReceived:       "received",
	StateTokenReady:     "token_ready",
	StateFetchedFromAPI: "fetched_from_api",
	StateBlobWritten:    "blob_written",
	StateStatusUpdated:  "status_updated",
	StateAcknowledged:   "acknowledged",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
