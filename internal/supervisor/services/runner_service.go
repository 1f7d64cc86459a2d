// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package services

import (
	"context"
	"fmt"

	"github.com/tomtom215/segmenthunter/internal/logging"
)

// Runner is a component with a blocking Run that returns when ctx ends.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerService supervises a Runner that can be run again after it returns,
// such as the blob notifier.
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService creates the wrapper.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	err := s.runner.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return nil
}

func (s *RunnerService) String() string {
	return s.name
}

// RouterFactory builds a fresh message router with its subscribers.
type RouterFactory func(ctx context.Context) (Runner, error)

// RouterService supervises the Watermill router. A closed router cannot be
// restarted, so every Serve builds a new one.
type RouterService struct {
	build RouterFactory
	name  string
}

// NewRouterService creates the wrapper.
func NewRouterService(build RouterFactory) *RouterService {
	return &RouterService{build: build, name: "message-router"}
}

// Serve implements suture.Service.
func (s *RouterService) Serve(ctx context.Context) error {
	router, err := s.build(ctx)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	logging.Info().Str("service", s.name).Msg("Message router starting")
	err = router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("router stopped: %w", err)
	}
	return fmt.Errorf("router stopped unexpectedly")
}

func (s *RouterService) String() string {
	return s.name
}
