// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package ledger

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/rayguard/rayguard/internal/models"
)

// Checkpoint is the chain head of a ledger: the hash of its newest entry and
// the number of entries recorded so far.
type Checkpoint struct {
	LastHash   []byte
	EntryCount uint64
}

// Store defines the interface for ledger persistence. Implementations must
// serialize appends per ledger so the hash chain never forks.
type Store interface {
	// CreateLedger creates a ledger under the given id. Creating an id
	// that already exists with the same seed is a no-op.
	CreateLedger(ctx context.Context, id, seed string) error

	// Append records a threat event at the tail of its ledger and returns
	// the chained entry. Returns ErrLedgerNotFound for unknown ledgers.
	Append(ctx context.Context, event models.ThreatEvent) (models.LedgerEntry, error)

	// Entries returns all entries of a ledger in append order.
	Entries(ctx context.Context, ledgerID string) ([]models.LedgerEntry, error)

	// Checkpoint returns the chain head of a ledger.
	Checkpoint(ctx context.Context, ledgerID string) (Checkpoint, error)
}

// memLedger holds one in-memory ledger's state.
type memLedger struct {
	seed     string
	lastHash []byte
	entries  []models.LedgerEntry
}

// MemoryStore implements Store using in-memory storage.
// Suitable for development and testing. Data is lost on restart.
type MemoryStore struct {
	ledgers map[string]*memLedger
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory ledger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ledgers: make(map[string]*memLedger),
	}
}

// CreateLedger creates a ledger, idempotently for the same seed.
func (s *MemoryStore) CreateLedger(_ context.Context, id, seed string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.ledgers[id]; ok {
		if existing.seed != seed {
			return ErrLedgerExists
		}
		return nil
	}

	s.ledgers[id] = &memLedger{
		seed:     seed,
		lastHash: genesisHash,
	}
	return nil
}

// Append records an event at the tail of its ledger's chain.
func (s *MemoryStore) Append(_ context.Context, event models.ThreatEvent) (models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.ledgers[event.LedgerID]
	if !ok {
		return models.LedgerEntry{}, ErrLedgerNotFound
	}

	seq := uint64(len(l.entries)) + 1
	prev := make([]byte, HashSize)
	copy(prev, l.lastHash)

	entry := models.LedgerEntry{
		LedgerID:    event.LedgerID,
		Seq:         seq,
		Timestamp:   time.Now().UTC(),
		SourceIP:    event.SourceIP,
		ThreatType:  event.ThreatType,
		ActionTaken: event.ActionTaken,
		PrevHash:    prev,
		CurrHash:    chainHash(prev, seq, event.SourceIP, event.ThreatType, event.ActionTaken),
	}

	l.entries = append(l.entries, entry)
	l.lastHash = entry.CurrHash
	return entry, nil
}

// Entries returns all entries of a ledger in append order.
func (s *MemoryStore) Entries(_ context.Context, ledgerID string) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.ledgers[ledgerID]
	if !ok {
		return nil, ErrLedgerNotFound
	}

	out := make([]models.LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out, nil
}

// Checkpoint returns the chain head of a ledger.
func (s *MemoryStore) Checkpoint(_ context.Context, ledgerID string) (Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.ledgers[ledgerID]
	if !ok {
		return Checkpoint{}, ErrLedgerNotFound
	}

	last := make([]byte, HashSize)
	copy(last, l.lastHash)
	return Checkpoint{LastHash: last, EntryCount: uint64(len(l.entries))}, nil
}

// Len returns the number of entries in a ledger, or zero if it is unknown
// (for testing).
func (s *MemoryStore) Len(ledgerID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l, ok := s.ledgers[ledgerID]; ok {
		return len(l.entries)
	}
	return 0
}

// VerifyChain recomputes a ledger's hash chain and reports whether every
// link and the stored checkpoint are intact.
func VerifyChain(entries []models.LedgerEntry, head Checkpoint) bool {
	prev := genesisHash
	for i := range entries {
		e := &entries[i]
		if !bytes.Equal(e.PrevHash, prev) {
			return false
		}
		want := chainHash(e.PrevHash, e.Seq, e.SourceIP, e.ThreatType, e.ActionTaken)
		if !bytes.Equal(e.CurrHash, want) {
			return false
		}
		prev = e.CurrHash
	}

	if head.EntryCount != uint64(len(entries)) {
		return false
	}
	return bytes.Equal(head.LastHash, prev)
}
