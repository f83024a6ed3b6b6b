// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package banlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/rayguard/rayguard/internal/metrics"
)

// banKeyPrefix namespaces ban records inside the BadgerDB keyspace.
const banKeyPrefix = "ban:"

// BadgerRegistry implements Registry on BadgerDB. Bans survive restarts and
// TTLs use Badger's native key expiry, so expired bans vanish without a
// sweeper.
type BadgerRegistry struct {
	db *badger.DB
}

// OpenBadgerRegistry opens (or creates) a Badger-backed ban registry at path.
// The caller owns Close.
func OpenBadgerRegistry(path string) (*BadgerRegistry, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &BadgerRegistry{db: db}, nil
}

// NewBadgerRegistry wraps an already-open Badger database.
func NewBadgerRegistry(db *badger.DB) *BadgerRegistry {
	return &BadgerRegistry{db: db}
}

// Close releases the underlying database.
func (r *BadgerRegistry) Close() error {
	return r.db.Close()
}

func banKey(id string) []byte {
	return []byte(banKeyPrefix + id)
}

// Check reports whether the identifier is currently banned.
func (r *BadgerRegistry) Check(_ context.Context, id string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(banKey(id))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("%w: check %s: %v", ErrRegistryUnavailable, id, err)
	}
}

// Add bans an identifier. With a positive ttl the key expires natively.
func (r *BadgerRegistry) Add(_ context.Context, id string, ttl time.Duration) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(banKey(id), []byte{1})
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("%w: add %s: %v", ErrRegistryUnavailable, id, err)
	}

	metrics.RecordBanAdded()
	return nil
}

// Remove lifts a ban.
func (r *BadgerRegistry) Remove(_ context.Context, id string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(banKey(id))
	})
	if err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrRegistryUnavailable, id, err)
	}
	return nil
}
