// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubServer struct {
	started  chan struct{}
	release  chan struct{}
	shutdown atomic.Bool
}

func newStubServer() *stubServer {
	return &stubServer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *stubServer) ListenAndServe() error {
	close(s.started)
	<-s.release
	return http.ErrServerClosed
}

func (s *stubServer) Shutdown(context.Context) error {
	s.shutdown.Store(true)
	close(s.release)
	return nil
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	srv := newStubServer()
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-srv.started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	if !srv.shutdown.Load() {
		t.Error("Shutdown was not called")
	}
}

func TestRunnerServiceDelegates(t *testing.T) {
	var ran atomic.Bool
	svc := NewRunnerService("probe", RunnerFunc(func(ctx context.Context) error {
		ran.Store(true)
		<-ctx.Done()
		return ctx.Err()
	}))

	if svc.String() != "probe" {
		t.Errorf("String() = %q, want probe", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	if !ran.Load() {
		t.Error("runner never ran")
	}
}

func TestTreeRunsSupervisedServices(t *testing.T) {
	tree := NewTree(testLogger(), DefaultTreeConfig())

	var served atomic.Bool
	tree.AddMessagingService(NewRunnerService("noop", RunnerFunc(func(ctx context.Context) error {
		served.Store(true)
		<-ctx.Done()
		return ctx.Err()
	})))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for !served.Load() {
		select {
		case <-deadline:
			t.Fatal("service never started under supervision")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}
}
