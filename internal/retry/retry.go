// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/segmenthunter/internal/config"
)

// ErrAttemptsExhausted is returned when every attempt of an operation failed.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// maxDelay caps a single backoff to keep float-to-duration conversion finite.
const maxDelay = 24 * time.Hour

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy configures exponential backoff.
type Policy struct {
	// MaxAttempts is the total number of attempts. Values below 1 mean 1.
	MaxAttempts int

	// Factor multiplies the delay after each failed attempt.
	Factor float64

	// BaseDelay is the delay after the first failed attempt.
	BaseDelay time.Duration

	// Sleep waits between attempts. Nil uses a context-aware timer.
	Sleep SleepFunc

	// Retryable decides whether an error is worth another attempt.
	// Nil retries every error.
	Retryable func(error) bool

	// OnRetry is called after a failed attempt that will be retried,
	// before sleeping.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Delay returns the backoff after failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	factor := p.Factor
	if factor <= 0 {
		factor = 1
	}
	d := float64(p.BaseDelay) * math.Pow(factor, float64(attempt-1))
	if d > float64(maxDelay) || math.IsInf(d, 0) || math.IsNaN(d) {
		return maxDelay
	}
	return time.Duration(d)
}

// Do runs op until it succeeds, returns a non-retryable error, the context is
// cancelled, or MaxAttempts is reached. op receives the 1-based attempt number.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return fmt.Errorf("retry interrupted after attempt %d: %w", attempt, errors.Join(sleepErr, lastErr))
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempts, lastErr)
}

// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FromConfig builds a Policy from its configuration section.
func FromConfig(c config.RetryPolicyConfig) Policy {
	return Policy{
		MaxAttempts: c.MaxAttempts,
		Factor:      c.Factor,
		BaseDelay:   c.BaseDelay,
	}
}
