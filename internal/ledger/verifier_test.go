// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/rayguard/rayguard/internal/models"
)

func setupVerifier(t *testing.T) (*Verifier, string) {
	t.Helper()

	ctx := context.Background()
	store := NewMemoryStore()
	w := NewWriter(store, nil)

	id, err := w.CreateLedger(ctx, "1")
	if err != nil {
		t.Fatalf("CreateLedger: %v", err)
	}

	recorded := []models.ThreatEvent{
		{LedgerID: id, SourceIP: "1.1.1.1", ThreatType: "DOS", ActionTaken: "BLOCK_IP"},
		{LedgerID: id, SourceIP: "2.2.2.2", ThreatType: "PROBE", ActionTaken: "NOTIFY"},
		// Duplicate of the first payload.
		{LedgerID: id, SourceIP: "1.1.1.1", ThreatType: "DOS", ActionTaken: "BLOCK_IP"},
	}
	for _, e := range recorded {
		if _, err := w.AddLog(ctx, e); err != nil {
			t.Fatalf("AddLog: %v", err)
		}
	}

	return NewVerifier(store), id
}

func TestVerifierExactMatch(t *testing.T) {
	v, id := setupVerifier(t)

	tests := []struct {
		name  string
		event models.ThreatEvent
		want  bool
	}{
		{"recorded entry", models.ThreatEvent{LedgerID: id, SourceIP: "1.1.1.1", ThreatType: "DOS", ActionTaken: "BLOCK_IP"}, true},
		{"second entry", models.ThreatEvent{LedgerID: id, SourceIP: "2.2.2.2", ThreatType: "PROBE", ActionTaken: "NOTIFY"}, true},
		{"never recorded", models.ThreatEvent{LedgerID: id, SourceIP: "9.9.9.9", ThreatType: "DOS", ActionTaken: "BLOCK_IP"}, false},
		{"case mismatch", models.ThreatEvent{LedgerID: id, SourceIP: "1.1.1.1", ThreatType: "dos", ActionTaken: "BLOCK_IP"}, false},
		{"field swap", models.ThreatEvent{LedgerID: id, SourceIP: "1.1.1.1", ThreatType: "BLOCK_IP", ActionTaken: "DOS"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Verify(context.Background(), tt.event)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if res.Verified != tt.want {
				t.Errorf("Verified = %v, want %v", res.Verified, tt.want)
			}
		})
	}
}

func TestVerifierDuplicatesStillVerify(t *testing.T) {
	v, id := setupVerifier(t)

	// The first payload exists twice; verification must still succeed.
	res, err := v.Verify(context.Background(), models.ThreatEvent{
		LedgerID: id, SourceIP: "1.1.1.1", ThreatType: "DOS", ActionTaken: "BLOCK_IP",
	})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.Verified {
		t.Error("duplicate payload did not verify")
	}
}

func TestVerifierStoreFailureIsError(t *testing.T) {
	v := NewVerifier(failingStore{})

	_, err := v.Verify(context.Background(), models.ThreatEvent{
		LedgerID: "l1", SourceIP: "1.1.1.1", ThreatType: "DOS", ActionTaken: "BLOCK_IP",
	})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Verify err = %v, want ErrStoreUnavailable (not verified=false)", err)
	}
}

func TestVerifierUnknownLedger(t *testing.T) {
	v := NewVerifier(NewMemoryStore())

	_, err := v.Verify(context.Background(), models.ThreatEvent{
		LedgerID: "missing", SourceIP: "1.1.1.1", ThreatType: "DOS", ActionTaken: "BLOCK_IP",
	})
	if !errors.Is(err, ErrLedgerNotFound) {
		t.Errorf("Verify err = %v, want ErrLedgerNotFound", err)
	}
}

func TestVerifierAudit(t *testing.T) {
	v, id := setupVerifier(t)

	ok, err := v.Audit(context.Background(), id)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if !ok {
		t.Error("Audit rejected an intact chain")
	}
}
