// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

// Package banlist maintains the set of banned identifiers consulted by the
// admission gate and written by the classifier.
//
// The registry is an injected dependency, never package-level state. A TTL of
// zero means the ban never expires.
package banlist

import (
	"context"
	"errors"
	"time"
)

// ErrRegistryUnavailable indicates the backing store could not serve the
// operation.
var ErrRegistryUnavailable = errors.New("ban registry unavailable")

// Registry is the ban membership store. Check must be cheap; it runs on
// every admitted request.
type Registry interface {
	// Check reports whether the identifier is currently banned.
	Check(ctx context.Context, id string) (bool, error)

	// Add bans an identifier. A zero ttl bans it until removed.
	Add(ctx context.Context, id string, ttl time.Duration) error

	// Remove lifts a ban. Removing an unknown identifier is a no-op.
	Remove(ctx context.Context, id string) error
}
