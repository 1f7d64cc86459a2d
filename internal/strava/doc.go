// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package strava is a small client for the two Strava endpoints the
// pipeline uses: segment explore and the OAuth refresh grant.
//
// Requests pass through a token-bucket limiter (golang.org/x/time/rate)
// before they leave the process. Strava's default quota is 100 requests per
// 15 minutes, which the default config approximates with 0.1 req/s and a
// burst of 10.
//
// Explore responses are decoded with number preservation: segment ids and
// other large integers come back as json.Number and re-encode unchanged.
package strava
