// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/segmenthunter/internal/dispatcher"
)

type mockHTTPServer struct {
	listenAndServeErr    error
	listenAndServeBlock  bool
	shutdownErr          error
	listenAndServeCount  atomic.Int32
	shutdownCount        atomic.Int32
	listenAndServeCalled chan struct{}
	stopCh               chan struct{}
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{
		listenAndServeCalled: make(chan struct{}, 1),
		stopCh:               make(chan struct{}),
	}
}

func (m *mockHTTPServer) ListenAndServe() error {
	m.listenAndServeCount.Add(1)
	select {
	case m.listenAndServeCalled <- struct{}{}:
	default:
	}

	if m.listenAndServeErr != nil {
		return m.listenAndServeErr
	}
	if m.listenAndServeBlock {
		<-m.stopCh
		return http.ErrServerClosed
	}
	return nil
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	m.shutdownCount.Add(1)
	close(m.stopCh)
	return m.shutdownErr
}

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*RunnerService)(nil)
	_ suture.Service = (*RouterService)(nil)
	_ suture.Service = (*DispatchService)(nil)
)

func TestHTTPServerService_Serve(t *testing.T) {
	t.Run("shuts down gracefully on context cancellation", func(t *testing.T) {
		server := newMockHTTPServer()
		server.listenAndServeBlock = true
		svc := NewHTTPServerService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		select {
		case <-server.listenAndServeCalled:
		case <-time.After(time.Second):
			t.Fatal("server did not start")
		}
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after context cancellation")
		}
		if server.shutdownCount.Load() != 1 {
			t.Errorf("expected 1 Shutdown call, got %d", server.shutdownCount.Load())
		}
	})

	t.Run("returns error on startup failure", func(t *testing.T) {
		bindErr := errors.New("bind: address already in use")
		server := newMockHTTPServer()
		server.listenAndServeErr = bindErr

		err := NewHTTPServerService(server, time.Second).Serve(context.Background())
		if !errors.Is(err, bindErr) {
			t.Errorf("expected %v, got %v", bindErr, err)
		}
	})

	t.Run("returns shutdown error", func(t *testing.T) {
		shutdownErr := errors.New("shutdown timeout")
		server := newMockHTTPServer()
		server.listenAndServeBlock = true
		server.shutdownErr = shutdownErr
		svc := NewHTTPServerService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()
		<-server.listenAndServeCalled
		cancel()

		if err := <-errCh; !errors.Is(err, shutdownErr) {
			t.Errorf("expected shutdown error, got %v", err)
		}
	})

	t.Run("default timeout and name", func(t *testing.T) {
		svc := NewHTTPServerService(newMockHTTPServer(), 0)
		if svc.shutdownTimeout != 10*time.Second {
			t.Errorf("expected 10s default, got %v", svc.shutdownTimeout)
		}
		if svc.String() != "http-server" {
			t.Errorf("expected 'http-server', got %q", svc.String())
		}
	})
}

type funcRunner func(ctx context.Context) error

func (f funcRunner) Run(ctx context.Context) error { return f(ctx) }

func TestRunnerService(t *testing.T) {
	t.Run("returns context error on cancellation", func(t *testing.T) {
		svc := NewRunnerService("notifier", funcRunner(func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if svc.String() != "notifier" {
			t.Errorf("expected name notifier, got %q", svc.String())
		}
	})

	t.Run("wraps runner error", func(t *testing.T) {
		boom := errors.New("watch failed")
		svc := NewRunnerService("notifier", funcRunner(func(context.Context) error { return boom }))
		if err := svc.Serve(context.Background()); !errors.Is(err, boom) {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})
}

func TestRouterService(t *testing.T) {
	t.Run("builds a new router on every serve", func(t *testing.T) {
		var builds atomic.Int32
		svc := NewRouterService(func(context.Context) (Runner, error) {
			builds.Add(1)
			return funcRunner(func(context.Context) error { return nil }), nil
		})

		for i := 0; i < 2; i++ {
			if err := svc.Serve(context.Background()); err == nil {
				t.Error("expected an error when the router stops on its own")
			}
		}
		if builds.Load() != 2 {
			t.Errorf("expected 2 builds, got %d", builds.Load())
		}
	})

	t.Run("build failure", func(t *testing.T) {
		boom := errors.New("nats unreachable")
		svc := NewRouterService(func(context.Context) (Runner, error) { return nil, boom })
		if err := svc.Serve(context.Background()); !errors.Is(err, boom) {
			t.Errorf("expected build error, got %v", err)
		}
	})

	t.Run("cancellation", func(t *testing.T) {
		svc := NewRouterService(func(context.Context) (Runner, error) {
			return funcRunner(func(ctx context.Context) error {
				<-ctx.Done()
				return nil
			}), nil
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

type countingDispatcher struct {
	runs atomic.Int32
	err  error
}

func (d *countingDispatcher) Run(context.Context) (dispatcher.Result, error) {
	d.runs.Add(1)
	return dispatcher.Result{Published: 1}, d.err
}

func TestDispatchService(t *testing.T) {
	t.Run("runs immediately and on every tick", func(t *testing.T) {
		d := &countingDispatcher{}
		svc := NewDispatchService(d, 20*time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
		if d.runs.Load() < 3 {
			t.Errorf("expected at least 3 runs, got %d", d.runs.Load())
		}
	})

	t.Run("failed run does not stop the loop", func(t *testing.T) {
		d := &countingDispatcher{err: errors.New("publish failed")}
		svc := NewDispatchService(d, 10*time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
		defer cancel()
		_ = svc.Serve(ctx)
		if d.runs.Load() < 2 {
			t.Errorf("expected loop to continue after a failure, got %d runs", d.runs.Load())
		}
	})

	t.Run("default interval", func(t *testing.T) {
		if svc := NewDispatchService(&countingDispatcher{}, 0); svc.interval != time.Minute {
			t.Errorf("expected 1m default, got %v", svc.interval)
		}
	})
}
