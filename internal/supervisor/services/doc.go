// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package services adapts the worker's components to suture.Service.
//
// Every wrapper translates a component's own lifecycle (a blocking Run, or
// ListenAndServe plus Shutdown) into Serve(ctx) error and names itself via
// String so supervisor events identify it.
package services
