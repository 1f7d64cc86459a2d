// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package eventprocessor

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/segmenthunter/internal/metrics"
)

// Router wraps the Watermill Router with the pipeline middleware stack.
//
// A handler returning nil acks its message. A handler returning a
// PermanentError has its message copied to the poison topic and acked.
// Any other error nacks the message and JetStream redelivers it until the
// consumer's MaxDeliver is reached.
type Router struct {
	router   *message.Router
	config   RouterConfig
	logger   watermill.LoggerAdapter
	running  atomic.Bool
	handlers map[string]*message.Handler
}

// NewRouter creates a Router. poisonPublisher may be nil to disable the poison queue.
func NewRouter(
	cfg *RouterConfig,
	poisonPublisher message.Publisher,
	logger watermill.LoggerAdapter,
) (*Router, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	if cfg == nil {
		defaultCfg := DefaultRouterConfig()
		cfg = &defaultCfg
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router:   wmRouter,
		config:   *cfg,
		logger:   logger,
		handlers: make(map[string]*message.Handler),
	}

	// Middleware order is outer to inner: panics become errors first, then
	// permanent failures are diverted before the nack.
	wmRouter.AddMiddleware(middleware.Recoverer)

	if poisonPublisher != nil && cfg.PoisonQueueTopic != "" {
		poisonQueue, err := middleware.PoisonQueueWithFilter(poisonPublisher, cfg.PoisonQueueTopic, IsPermanentError)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	return r, nil
}

// AddConsumerHandler registers a handler that doesn't produce output messages.
func (r *Router) AddConsumerHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	handler message.NoPublishHandlerFunc,
) *message.Handler {
	h := r.router.AddConsumerHandler(
		name,
		subscribeTopic,
		subscriber,
		func(msg *message.Message) error {
			metrics.RecordNATSConsume(name)
			return handler(msg)
		},
	)
	r.handlers[name] = h
	return h
}

// Run starts the router and blocks until context cancellation or Close().
func (r *Router) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)
	return r.router.Run(ctx)
}

// Running returns a channel that closes when the router is running.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close gracefully stops the router.
// Waits for in-flight messages to complete up to CloseTimeout.
func (r *Router) Close() error {
	return r.router.Close()
}

// IsRunning returns whether the router is currently processing messages.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}

// Handlers returns the names of the registered handlers.
func (r *Router) Handlers() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
