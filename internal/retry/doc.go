// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package retry runs an operation under a bounded exponential backoff policy.
//
// The delay after failed attempt a (1-based) is BaseDelay * Factor^(a-1).
// There is no sleep after the final attempt. With MaxAttempts N, an operation
// that fails k < N times succeeds after sleeping Factor^0 .. Factor^(k-1)
// base delays; one that keeps failing is attempted exactly N times and Do
// returns an error wrapping both ErrAttemptsExhausted and the last failure.
//
// Sleeping goes through Policy.Sleep so tests can observe delays without
// waiting:
//
//	var delays []time.Duration
//	p := retry.Policy{MaxAttempts: 3, Factor: 4, BaseDelay: time.Second,
//	    Sleep: func(_ context.Context, d time.Duration) error {
//	        delays = append(delays, d)
//	        return nil
//	    }}
//	err := p.Do(ctx, func(ctx context.Context, attempt int) error { ... })
//	// delays == [1s 4s] when every attempt fails
package retry
