// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package tokens hands out a valid Strava access token, refreshing it
// through the OAuth refresh grant when the stored one has expired.
//
// Secrets used, per environment:
//
//	strava-access-token--{env}    JSON credential without refresh_token
//	strava-refresh-token--{env}   current refresh token
//	strava-client-id--{env}       OAuth client id
//	strava-client-secret--{env}   OAuth client secret
//
// Strava rotates the refresh token on every grant, so both the access token
// document and the new refresh token are written back after a refresh.
package tokens
