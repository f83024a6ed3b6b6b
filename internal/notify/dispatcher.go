// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package notify

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/rayguard/rayguard/internal/logging"
	"github.com/rayguard/rayguard/internal/metrics"
)

// DispatcherConfig tunes the async notification worker.
type DispatcherConfig struct {
	// QueueSize bounds the pending alert queue. Default 64.
	QueueSize int

	// MaxRetries is the number of re-attempts after a failed send.
	// Default 2.
	MaxRetries int

	// RetryDelay is the pause between attempts. Default 500ms.
	RetryDelay time.Duration

	// RatePerMinute caps outbound sends. Default 10.
	RatePerMinute int

	// BreakerFailureThreshold is the consecutive-failure count that opens
	// the circuit. Default 5.
	BreakerFailureThreshold uint32

	// BreakerTimeout is how long the circuit stays open. Default 60s.
	BreakerTimeout time.Duration
}

// withDefaults fills zero values.
func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 500 * time.Millisecond
	}
	if c.RatePerMinute <= 0 {
		c.RatePerMinute = 10
	}
	if c.BreakerFailureThreshold == 0 {
		c.BreakerFailureThreshold = 5
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = 60 * time.Second
	}
	return c
}

// Dispatcher delivers alerts asynchronously through a bounded queue.
// Notify never blocks and never returns an error to the caller; a full
// queue drops the alert, and send failures are retried a bounded number of
// times behind a circuit breaker and a rate limiter.
type Dispatcher struct {
	cfg      DispatcherConfig
	notifier Notifier
	queue    chan Alert
	breaker  *gobreaker.CircuitBreaker[any]
	limiter  *rate.Limiter
}

// NewDispatcher creates a dispatcher around the given notifier.
func NewDispatcher(notifier Notifier, cfg DispatcherConfig) *Dispatcher {
	cfg = cfg.withDefaults()

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "notifier",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
	})

	return &Dispatcher{
		cfg:      cfg,
		notifier: notifier,
		queue:    make(chan Alert, cfg.QueueSize),
		breaker:  breaker,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1),
	}
}

// Notify enqueues an alert without blocking. A full queue drops the alert.
func (d *Dispatcher) Notify(alert Alert) {
	select {
	case d.queue <- alert:
		metrics.UpdateNotifierQueueDepth(len(d.queue))
	default:
		metrics.RecordNotifierSend("rejected")
		logging.Warn().
			Str("threat_type", alert.ThreatType).
			Msg("notification queue full, alert dropped")
	}
}

// Serve drains the queue until the context is canceled. Intended to run
// under the supervisor.
func (d *Dispatcher) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case alert := <-d.queue:
			metrics.UpdateNotifierQueueDepth(len(d.queue))
			d.deliver(ctx, alert)
		}
	}
}

// deliver attempts a send with bounded retries. All failures end in a log
// line, never in an error to the alert's originator.
func (d *Dispatcher) deliver(ctx context.Context, alert Alert) {
	if err := d.limiter.Wait(ctx); err != nil {
		return
	}

	var err error
	for attempt := 0; attempt <= d.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.cfg.RetryDelay):
			}
		}

		_, err = d.breaker.Execute(func() (any, error) {
			return nil, d.notifier.Send(ctx, alert)
		})
		if err == nil {
			metrics.RecordNotifierSend("success")
			return
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordNotifierSend("rejected")
			logging.Debug().Str("threat_type", alert.ThreatType).Msg("notifier circuit open, alert skipped")
			return
		}
	}

	metrics.RecordNotifierSend("failure")
	logging.Err(err).
		Str("threat_type", alert.ThreatType).
		Int("attempts", d.cfg.MaxRetries+1).
		Msg("notification delivery failed")
}
