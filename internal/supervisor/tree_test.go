// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tomtom215/segmenthunter/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before timeout")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSupervisorTreeConstruction(t *testing.T) {
	t.Run("applies default values for zero config", func(t *testing.T) {
		tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}
		if tree.Root() == nil {
			t.Fatal("root supervisor should not be nil")
		}
		if tree.config != DefaultTreeConfig() {
			t.Errorf("expected defaults %+v, got %+v", DefaultTreeConfig(), tree.config)
		}
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		tree, err := NewSupervisorTree(nil, TreeConfig{FailureThreshold: 2, FailureBackoff: time.Second})
		if err != nil {
			t.Fatal(err)
		}
		if tree.config.FailureThreshold != 2 || tree.config.FailureBackoff != time.Second {
			t.Errorf("explicit values overwritten: %+v", tree.config)
		}
	})
}

func TestTreeConfigFrom(t *testing.T) {
	got := TreeConfigFrom(&config.SupervisorConfig{
		FailureThreshold: 3,
		FailureDecay:     10,
		FailureBackoff:   time.Second,
		ShutdownTimeout:  2 * time.Second,
	})
	want := TreeConfig{FailureThreshold: 3, FailureDecay: 10, FailureBackoff: time.Second, ShutdownTimeout: 2 * time.Second}
	if got != want {
		t.Errorf("TreeConfigFrom() = %+v, want %+v", got, want)
	}
}

func TestSupervisorTreeLifecycle(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureBackoff:  100 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	messaging := newMockService("mock-messaging")
	api := newMockService("mock-api")
	tree.AddMessagingService(messaging)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitFor(t, func() bool {
		return messaging.startCount.Load() == 1 && api.startCount.Load() == 1
	}, 2*time.Second)

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not shut down in time")
	}

	if messaging.stopCount.Load() != 1 || api.stopCount.Load() != 1 {
		t.Errorf("expected both services stopped once, got %d and %d",
			messaging.stopCount.Load(), api.stopCount.Load())
	}
	if report, err := tree.UnstoppedServiceReport(); err != nil || len(report) != 0 {
		t.Errorf("expected no unstopped services, got %v (%v)", report, err)
	}
}

func TestSupervisorTreeRestartsFailedService(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	flaky := newMockService("flaky")
	flaky.setFailCount(2)
	steady := newMockService("steady")
	tree.AddMessagingService(flaky)
	tree.AddAPIService(steady)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitFor(t, func() bool { return flaky.startCount.Load() >= 3 }, 5*time.Second)

	if steady.startCount.Load() != 1 {
		t.Errorf("failure in messaging layer restarted the api layer: %d starts", steady.startCount.Load())
	}

	cancel()
	<-errCh
}
