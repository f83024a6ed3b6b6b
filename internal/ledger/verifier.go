// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package ledger

import (
	"context"
	"fmt"

	"github.com/rayguard/rayguard/internal/metrics"
	"github.com/rayguard/rayguard/internal/models"
)

// Result is the outcome of a verification query. Verified is meaningful only
// when the query itself succeeded; store failures surface as errors, never as
// Verified=false.
type Result struct {
	Verified bool
}

// Verifier answers exact-match queries against recorded ledger entries.
type Verifier struct {
	store Store
}

// NewVerifier creates a verifier over the given store.
func NewVerifier(store Store) *Verifier {
	return &Verifier{store: store}
}

// Verify reports whether an entry exactly matching the event's payload
// fields exists in the event's ledger. The scan is linear and the first
// match wins; duplicate entries still verify.
func (v *Verifier) Verify(ctx context.Context, event models.ThreatEvent) (Result, error) {
	entries, err := v.store.Entries(ctx, event.LedgerID)
	if err != nil {
		return Result{}, fmt.Errorf("load entries: %w", err)
	}

	for i := range entries {
		if entries[i].Matches(event) {
			metrics.RecordVerification(true)
			return Result{Verified: true}, nil
		}
	}

	metrics.RecordVerification(false)
	return Result{Verified: false}, nil
}

// Audit recomputes a ledger's hash chain against its stored checkpoint and
// reports whether the chain is intact.
func (v *Verifier) Audit(ctx context.Context, ledgerID string) (bool, error) {
	entries, err := v.store.Entries(ctx, ledgerID)
	if err != nil {
		return false, fmt.Errorf("load entries: %w", err)
	}

	head, err := v.store.Checkpoint(ctx, ledgerID)
	if err != nil {
		return false, fmt.Errorf("load checkpoint: %w", err)
	}

	return VerifyChain(entries, head), nil
}
