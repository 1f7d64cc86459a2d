// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/segmenthunter/internal/config"
)

// recorder captures requested sleeps without waiting.
type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

// failing returns an op that fails the first k attempts.
func failing(k int, calls *int) func(context.Context, int) error {
	return func(_ context.Context, attempt int) error {
		*calls++
		if attempt != *calls {
			panic("attempt numbers must be sequential and 1-based")
		}
		if attempt <= k {
			return errors.New("transient")
		}
		return nil
	}
}

func TestDo_DelaySequences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		maxAttempts int
		factor      float64
		failures    int
		wantCalls   int
		wantDelays  []time.Duration
		wantErr     bool
	}{
		{
			name:        "fetch policy, 3 failures then success",
			maxAttempts: 6, factor: 4, failures: 3,
			wantCalls:  4,
			wantDelays: []time.Duration{1 * time.Second, 4 * time.Second, 16 * time.Second},
		},
		{
			name:        "fetch policy, always failing",
			maxAttempts: 6, factor: 4, failures: 100,
			wantCalls:  6,
			wantDelays: []time.Duration{1 * time.Second, 4 * time.Second, 16 * time.Second, 64 * time.Second, 256 * time.Second},
			wantErr:    true,
		},
		{
			name:        "publish policy, always failing",
			maxAttempts: 3, factor: 4, failures: 100,
			wantCalls:  3,
			wantDelays: []time.Duration{1 * time.Second, 4 * time.Second},
			wantErr:    true,
		},
		{
			name:        "first attempt succeeds",
			maxAttempts: 3, factor: 4, failures: 0,
			wantCalls:  1,
			wantDelays: nil,
		},
		{
			name:        "fails exactly max-1 times",
			maxAttempts: 3, factor: 2, failures: 2,
			wantCalls:  3,
			wantDelays: []time.Duration{1 * time.Second, 2 * time.Second},
		},
		{
			name:        "zero max attempts means one",
			maxAttempts: 0, factor: 4, failures: 100,
			wantCalls:  1,
			wantDelays: nil,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{}
			calls := 0
			p := Policy{MaxAttempts: tt.maxAttempts, Factor: tt.factor, BaseDelay: time.Second, Sleep: rec.sleep}

			err := p.Do(context.Background(), failing(tt.failures, &calls))

			if (err != nil) != tt.wantErr {
				t.Fatalf("Do() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("Expected %d calls, got %d", tt.wantCalls, calls)
			}
			if len(rec.delays) != len(tt.wantDelays) {
				t.Fatalf("Expected delays %v, got %v", tt.wantDelays, rec.delays)
			}
			for i := range tt.wantDelays {
				if rec.delays[i] != tt.wantDelays[i] {
					t.Errorf("delay[%d] = %v, want %v", i, rec.delays[i], tt.wantDelays[i])
				}
			}
		})
	}
}

func TestDo_ExhaustedWrapsLastError(t *testing.T) {
	t.Parallel()

	lastErr := errors.New("503 from upstream")
	rec := &recorder{}
	p := Policy{MaxAttempts: 2, Factor: 4, BaseDelay: time.Millisecond, Sleep: rec.sleep}

	err := p.Do(context.Background(), func(_ context.Context, attempt int) error {
		if attempt == 2 {
			return lastErr
		}
		return errors.New("first")
	})

	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Errorf("Expected ErrAttemptsExhausted, got %v", err)
	}
	if !errors.Is(err, lastErr) {
		t.Errorf("Expected error to wrap the last failure, got %v", err)
	}
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	t.Parallel()

	permanent := errors.New("bad request")
	rec := &recorder{}
	calls := 0
	p := Policy{
		MaxAttempts: 5, Factor: 4, BaseDelay: time.Second, Sleep: rec.sleep,
		Retryable: func(err error) bool { return !errors.Is(err, permanent) },
	}

	err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		return permanent
	})

	if !errors.Is(err, permanent) || errors.Is(err, ErrAttemptsExhausted) {
		t.Errorf("Expected the permanent error unchanged, got %v", err)
	}
	if calls != 1 || len(rec.delays) != 0 {
		t.Errorf("Expected 1 call and no sleeps, got %d calls and %v", calls, rec.delays)
	}
}

func TestDo_OnRetry(t *testing.T) {
	t.Parallel()

	var attempts []int
	p := Policy{
		MaxAttempts: 3, Factor: 4, BaseDelay: time.Second,
		Sleep:   func(context.Context, time.Duration) error { return nil },
		OnRetry: func(attempt int, _ time.Duration, _ error) { attempts = append(attempts, attempt) },
	}

	_ = p.Do(context.Background(), func(context.Context, int) error { return errors.New("x") })

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("Expected OnRetry for attempts [1 2], got %v", attempts)
	}
}

func TestDo_ContextCancelledDuringSleep(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := Policy{MaxAttempts: 5, Factor: 4, BaseDelay: time.Hour}

	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(context.Context, int) error {
			calls++
			return errors.New("transient")
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
		if calls != 1 {
			t.Errorf("Expected 1 call before cancellation, got %d", calls)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
}

func TestPolicyDelay(t *testing.T) {
	t.Parallel()

	p := Policy{Factor: 4, BaseDelay: time.Second}

	if got := p.Delay(1); got != time.Second {
		t.Errorf("Delay(1) = %v, want 1s", got)
	}
	if got := p.Delay(5); got != 256*time.Second {
		t.Errorf("Delay(5) = %v, want 256s", got)
	}
	if got := p.Delay(1000); got != maxDelay {
		t.Errorf("Delay(1000) = %v, want cap %v", got, maxDelay)
	}
}

func TestSleep(t *testing.T) {
	t.Parallel()

	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	p := FromConfig(config.RetryPolicyConfig{MaxAttempts: 6, Factor: 4, BaseDelay: time.Second})

	want := []time.Duration{time.Second, 4 * time.Second, 16 * time.Second, 64 * time.Second, 256 * time.Second}
	for i, d := range want {
		if got := p.Delay(i + 1); got != d {
			t.Errorf("Delay(%d) = %v, want %v", i+1, got, d)
		}
	}
	if p.MaxAttempts != 6 {
		t.Errorf("MaxAttempts = %d, want 6", p.MaxAttempts)
	}
}
