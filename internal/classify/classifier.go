// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

// Package classify maps agent-reported intrusion signals to responses and
// side effects: bans for denial-of-service sources, out-of-band alerts for
// probes.
package classify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rayguard/rayguard/internal/banlist"
	"github.com/rayguard/rayguard/internal/logging"
	"github.com/rayguard/rayguard/internal/metrics"
	"github.com/rayguard/rayguard/internal/models"
	"github.com/rayguard/rayguard/internal/notify"
)

// Signal is an agent-reported observation.
type Signal struct {
	// Type is the threat classification claimed by the agent.
	Type string `json:"type" validate:"required"`

	// Data carries the offending identifier when the agent captured one.
	Data string `json:"data,omitempty"`
}

// Outcome is the classifier's verdict: the HTTP status and message the
// caller relays verbatim.
type Outcome struct {
	Status  int
	Message string
}

// AlertSink accepts alerts for asynchronous delivery. Implementations must
// not block.
type AlertSink interface {
	Notify(alert notify.Alert)
}

// Classifier dispatches signals by threat type. The ban registry write for a
// DOS signal completes before the outcome is returned; the probe alert is
// handed off and forgotten.
type Classifier struct {
	registry banlist.Registry
	alerts   AlertSink
	banTTL   time.Duration
}

// NewClassifier creates a classifier. alerts may be nil when no notifier is
// configured; banTTL of zero bans permanently.
func NewClassifier(registry banlist.Registry, alerts AlertSink, banTTL time.Duration) *Classifier {
	return &Classifier{registry: registry, alerts: alerts, banTTL: banTTL}
}

// Classify resolves a signal to its outcome, applying side effects. The only
// error path is a ban registry failure; every recognized and unrecognized
// type otherwise maps to a definite outcome.
func (c *Classifier) Classify(ctx context.Context, sig Signal) (Outcome, error) {
	metrics.RecordSignal(sig.Type)

	switch sig.Type {
	case string(models.ThreatTypeU2R):
		return Outcome{Status: http.StatusForbidden, Message: "PROCESS TERMINATED"}, nil

	case string(models.ThreatTypeR2L):
		return Outcome{Status: http.StatusUnauthorized, Message: "UNAUTHORIZED"}, nil

	case string(models.ThreatTypeDOS):
		if sig.Data == "" {
			return Outcome{Status: http.StatusServiceUnavailable, Message: "USER NOT FOUND"}, nil
		}
		// The ban must be in effect before the attacker sees the response.
		if err := c.registry.Add(ctx, sig.Data, c.banTTL); err != nil {
			return Outcome{}, fmt.Errorf("ban %s: %w", sig.Data, err)
		}
		logging.Ctx(ctx).Info().Str("banned", sig.Data).Msg("dos source banned")
		return Outcome{Status: http.StatusServiceUnavailable, Message: "SERVICE UNAVAILABLE"}, nil

	case string(models.ThreatTypeProbe):
		if c.alerts != nil {
			c.alerts.Notify(notify.Alert{
				ThreatType: sig.Type,
				SourceIP:   sig.Data,
				Detail:     "reconnaissance activity reported",
			})
		}
		return Outcome{Status: http.StatusNotAcceptable, Message: "NOTIFIED"}, nil

	default:
		return Outcome{Status: http.StatusBadRequest, Message: "UNKNOWN SIGNAL TYPE"}, nil
	}
}
