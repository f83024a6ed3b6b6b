// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package supervisor

import "context"

// Runner is any component with a blocking, context-bound run loop. The
// fan-out hub, the bus bridge, and the alert dispatcher all satisfy it.
type Runner interface {
	Serve(ctx context.Context) error
}

// RunnerFunc adapts a bare run function to the Runner interface.
type RunnerFunc func(ctx context.Context) error

// Serve implements Runner.
func (f RunnerFunc) Serve(ctx context.Context) error {
	return f(ctx)
}

// RunnerService adapts a Runner to suture.Service with a stable name for
// supervision logs.
type RunnerService struct {
	name   string
	runner Runner
}

// NewRunnerService wraps a runner as a supervised service.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{name: name, runner: runner}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.Serve(ctx)
}

// String identifies the service in suture's logs.
func (s *RunnerService) String() string {
	return s.name
}
