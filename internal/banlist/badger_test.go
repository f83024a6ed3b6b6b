// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package banlist

import (
	"context"
	"testing"

	badger "github.com/dgraph-io/badger/v4"
)

func setupBadgerRegistry(t *testing.T) *BadgerRegistry {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewBadgerRegistry(db)
}

func TestBadgerRegistryAddCheckRemove(t *testing.T) {
	ctx := context.Background()
	r := setupBadgerRegistry(t)

	banned, err := r.Check(ctx, "10.0.0.5")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if banned {
		t.Error("fresh registry reported a ban")
	}

	if err := r.Add(ctx, "10.0.0.5", 0); err != nil {
		t.Fatalf("Add: %v", err)
	}

	banned, err = r.Check(ctx, "10.0.0.5")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !banned {
		t.Error("added identifier not reported as banned")
	}

	if err := r.Remove(ctx, "10.0.0.5"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	banned, err = r.Check(ctx, "10.0.0.5")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if banned {
		t.Error("removed identifier still banned")
	}
}

func TestBadgerRegistryRemoveUnknownIsNoop(t *testing.T) {
	r := setupBadgerRegistry(t)
	if err := r.Remove(context.Background(), "never-banned"); err != nil {
		t.Errorf("Remove of unknown id: %v", err)
	}
}
