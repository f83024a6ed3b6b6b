// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package banlist

import (
	"context"
	"sync"
	"time"

	"github.com/rayguard/rayguard/internal/metrics"
)

// MemoryRegistry implements Registry with an in-process map. Bans do not
// survive a restart; expiry is evaluated lazily on Check.
type MemoryRegistry struct {
	mu   sync.RWMutex
	bans map[string]time.Time // zero time means no expiry
}

// NewMemoryRegistry creates an empty in-memory ban registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		bans: make(map[string]time.Time),
	}
}

// Check reports whether the identifier is currently banned.
func (r *MemoryRegistry) Check(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	expiry, ok := r.bans[id]
	r.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if expiry.IsZero() || time.Now().Before(expiry) {
		return true, nil
	}

	// Expired; drop it so the map does not grow unbounded.
	r.mu.Lock()
	if exp, still := r.bans[id]; still && exp.Equal(expiry) {
		delete(r.bans, id)
	}
	r.mu.Unlock()
	return false, nil
}

// Add bans an identifier, optionally with a TTL.
func (r *MemoryRegistry) Add(_ context.Context, id string, ttl time.Duration) error {
	var expiry time.Time
	if ttl > 0 {
		expiry = time.Now().Add(ttl)
	}

	r.mu.Lock()
	r.bans[id] = expiry
	r.mu.Unlock()

	metrics.RecordBanAdded()
	return nil
}

// Remove lifts a ban.
func (r *MemoryRegistry) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.bans, id)
	r.mu.Unlock()
	return nil
}

// Len returns the number of banned identifiers (for testing).
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bans)
}
