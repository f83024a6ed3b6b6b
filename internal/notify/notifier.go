// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

// Package notify delivers out-of-band alerts for classified threats. Delivery
// is fire-and-forget: the request path enqueues and moves on, and a notifier
// failure is never surfaced to the caller that raised the alert.
package notify

import (
	"context"
	"fmt"
)

// Alert is an outbound notification about a classified threat.
type Alert struct {
	// ThreatType is the classification that triggered the alert.
	ThreatType string

	// SourceIP is the address the threat originated from, when known.
	SourceIP string

	// Detail is free-form context for the recipient.
	Detail string
}

// Content renders the alert as a human-readable message body.
func (a Alert) Content() string {
	msg := fmt.Sprintf("Rayguard alert: %s threat detected", a.ThreatType)
	if a.SourceIP != "" {
		msg += fmt.Sprintf(" from %s", a.SourceIP)
	}
	if a.Detail != "" {
		msg += ". " + a.Detail
	}
	return msg
}

// Notifier sends an alert to an external channel.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// NopNotifier discards alerts. Used when no notification channel is
// configured.
type NopNotifier struct{}

// Send discards the alert.
func (NopNotifier) Send(context.Context, Alert) error { return nil }
