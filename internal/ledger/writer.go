// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package ledger

import (
	"context"
	"fmt"

	"github.com/rayguard/rayguard/internal/logging"
	"github.com/rayguard/rayguard/internal/metrics"
	"github.com/rayguard/rayguard/internal/models"
)

// Broadcaster delivers a recorded entry to live subscribers. Implementations
// must not block; delivery is best effort and happens only after the store
// has acknowledged the entry.
type Broadcaster interface {
	BroadcastEntry(entry models.LedgerEntry)
}

// Writer is the single write path into a ledger: it validates events,
// appends them through the store, and hands committed entries to the
// broadcaster.
type Writer struct {
	store       Store
	broadcaster Broadcaster
}

// NewWriter creates a ledger writer. broadcaster may be nil when no live
// fan-out is wired.
func NewWriter(store Store, broadcaster Broadcaster) *Writer {
	return &Writer{store: store, broadcaster: broadcaster}
}

// CreateLedger derives the ledger id for the seed and creates the ledger.
// Creating the same seed twice returns the same id without error.
func (w *Writer) CreateLedger(ctx context.Context, seed string) (string, error) {
	id, err := DeriveLedgerID(seed)
	if err != nil {
		return "", err
	}

	if err := w.store.CreateLedger(ctx, id, seed); err != nil {
		return "", fmt.Errorf("create ledger: %w", err)
	}

	metrics.RecordLedgerCreate()
	logging.Ctx(ctx).Info().Str("ledger", id).Msg("ledger created")
	return id, nil
}

// AddLog validates and records a threat event, then broadcasts the committed
// entry. A broadcast failure never fails the append; subscribers are best
// effort.
func (w *Writer) AddLog(ctx context.Context, event models.ThreatEvent) (models.LedgerEntry, error) {
	if !event.Complete() {
		return models.LedgerEntry{}, fmt.Errorf("%w: all fields are required", ErrInvalidEvent)
	}

	entry, err := w.store.Append(ctx, event)
	if err != nil {
		metrics.RecordLedgerAppendError()
		return models.LedgerEntry{}, fmt.Errorf("append event: %w", err)
	}

	metrics.RecordLedgerAppend(entry.ThreatType)
	logging.Ctx(ctx).Debug().
		Str("ledger", entry.LedgerID).
		Uint64("seq", entry.Seq).
		Str("threat_type", entry.ThreatType).
		Msg("entry recorded")

	// Broadcast only after the store ack so subscribers never see an
	// entry that was not durably recorded.
	if w.broadcaster != nil {
		w.broadcaster.BroadcastEntry(entry)
	}

	return entry, nil
}
