// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rayguard/rayguard/internal/logging"
	"github.com/rayguard/rayguard/internal/models"
)

// DuckDBStore implements Store using DuckDB for persistent storage.
// A single mutex serializes appends so the hash chain never forks; reads
// take the shared lock.
type DuckDBStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewDuckDBStore creates a new DuckDB-backed ledger store.
// Call CreateTables before first use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTables creates the ledger schema if it doesn't exist.
// This should be called during database initialization.
func (s *DuckDBStore) CreateTables(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ledgers (
			id TEXT PRIMARY KEY,
			seed TEXT NOT NULL,
			last_hash BLOB NOT NULL,
			entry_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS ledger_entries (
			ledger_id TEXT NOT NULL,
			seq BIGINT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			ip_address TEXT NOT NULL,
			threat_type TEXT NOT NULL,
			action_taken TEXT NOT NULL,
			prev_hash BLOB NOT NULL,
			curr_hash BLOB NOT NULL,
			PRIMARY KEY (ledger_id, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_entries_ledger ON ledger_entries(ledger_id);
		CREATE INDEX IF NOT EXISTS idx_entries_ip ON ledger_entries(ip_address);
	`

	// Split and execute each statement
	statements := strings.Split(query, ";")
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Info().Msg("Ledger tables created/verified")
	return nil
}

// CreateLedger creates a ledger row, idempotently for the same seed.
func (s *DuckDBStore) CreateLedger(ctx context.Context, id, seed string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existingSeed string
	err := s.db.QueryRowContext(ctx, "SELECT seed FROM ledgers WHERE id = ?", id).Scan(&existingSeed)
	switch {
	case err == nil:
		if existingSeed != seed {
			return ErrLedgerExists
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
		// fall through to insert
	default:
		return fmt.Errorf("%w: lookup ledger: %v", ErrStoreUnavailable, err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO ledgers (id, seed, last_hash, entry_count) VALUES (?, ?, ?, 0)",
		id, seed, genesisHash,
	)
	if err != nil {
		return fmt.Errorf("%w: insert ledger: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Append records a threat event at the tail of its ledger's chain. The read
// of the chain head, the entry insert, and the head update commit in one
// transaction.
func (s *DuckDBStore) Append(ctx context.Context, event models.ThreatEvent) (models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("%w: begin transaction: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var lastHash []byte
	var count uint64
	err = tx.QueryRowContext(ctx,
		"SELECT last_hash, entry_count FROM ledgers WHERE id = ?", event.LedgerID,
	).Scan(&lastHash, &count)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.LedgerEntry{}, ErrLedgerNotFound
	case err != nil:
		return models.LedgerEntry{}, fmt.Errorf("%w: read chain head: %v", ErrStoreUnavailable, err)
	}

	entry := models.LedgerEntry{
		LedgerID:    event.LedgerID,
		Seq:         count + 1,
		Timestamp:   time.Now().UTC(),
		SourceIP:    event.SourceIP,
		ThreatType:  event.ThreatType,
		ActionTaken: event.ActionTaken,
		PrevHash:    lastHash,
	}
	entry.CurrHash = chainHash(entry.PrevHash, entry.Seq, entry.SourceIP, entry.ThreatType, entry.ActionTaken)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger_entries
			(ledger_id, seq, ts, ip_address, threat_type, action_taken, prev_hash, curr_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.LedgerID, entry.Seq, entry.Timestamp,
		entry.SourceIP, entry.ThreatType, entry.ActionTaken,
		entry.PrevHash, entry.CurrHash,
	)
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("%w: insert entry: %v", ErrStoreUnavailable, err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE ledgers SET last_hash = ?, entry_count = ? WHERE id = ?",
		entry.CurrHash, entry.Seq, entry.LedgerID,
	)
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("%w: update chain head: %v", ErrStoreUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return models.LedgerEntry{}, fmt.Errorf("%w: commit append: %v", ErrStoreUnavailable, err)
	}
	return entry, nil
}

// Entries returns all entries of a ledger in append order.
func (s *DuckDBStore) Entries(ctx context.Context, ledgerID string) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ledgerExists(ctx, ledgerID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ledger_id, seq, ts, ip_address, threat_type, action_taken, prev_hash, curr_hash
		FROM ledger_entries WHERE ledger_id = ? ORDER BY seq ASC`, ledgerID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query entries: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(
			&e.LedgerID, &e.Seq, &e.Timestamp,
			&e.SourceIP, &e.ThreatType, &e.ActionTaken,
			&e.PrevHash, &e.CurrHash,
		); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %v", ErrStoreUnavailable, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate entries: %v", ErrStoreUnavailable, err)
	}
	return entries, nil
}

// Checkpoint returns the chain head of a ledger.
func (s *DuckDBStore) Checkpoint(ctx context.Context, ledgerID string) (Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cp Checkpoint
	err := s.db.QueryRowContext(ctx,
		"SELECT last_hash, entry_count FROM ledgers WHERE id = ?", ledgerID,
	).Scan(&cp.LastHash, &cp.EntryCount)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Checkpoint{}, ErrLedgerNotFound
	case err != nil:
		return Checkpoint{}, fmt.Errorf("%w: read chain head: %v", ErrStoreUnavailable, err)
	}
	return cp, nil
}

// ledgerExists checks for a ledger row (must be called with mu held).
func (s *DuckDBStore) ledgerExists(ctx context.Context, ledgerID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM ledgers WHERE id = ?", ledgerID).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrLedgerNotFound
	case err != nil:
		return fmt.Errorf("%w: lookup ledger: %v", ErrStoreUnavailable, err)
	}
	return nil
}
