// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

// Package ledger implements the append-only threat event ledger: hash-chained
// persistence, exact-match verification, and post-commit broadcast of
// recorded entries.
//
// A ledger is identified by an opaque id derived from a numeric seed. Entries
// are sequenced and chained: entry N carries the hash of entry N-1 and a hash
// over its own payload, so any retroactive edit breaks the chain.
package ledger

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// Sentinel errors for the failure modes callers dispatch on.
var (
	// ErrStoreUnavailable indicates the backing store could not serve the
	// operation. Not retried; surfaced to the caller.
	ErrStoreUnavailable = errors.New("ledger store unavailable")

	// ErrLedgerNotFound indicates the referenced ledger does not exist.
	ErrLedgerNotFound = errors.New("ledger not found")

	// ErrLedgerExists indicates a create raced an existing ledger with a
	// different seed mapping. Same-seed creates are idempotent and do not
	// return this.
	ErrLedgerExists = errors.New("ledger already exists")

	// ErrInvalidSeed indicates the seed did not parse as an unsigned
	// 16-bit integer.
	ErrInvalidSeed = errors.New("invalid ledger seed")

	// ErrInvalidEvent indicates a threat event with missing fields.
	ErrInvalidEvent = errors.New("invalid threat event")
)

// HashSize is the length in bytes of chain hashes.
const HashSize = blake2b.Size256

// genesisHash is the previous-hash value of the first entry in a chain.
var genesisHash = make([]byte, HashSize)

// ParseSeed parses a ledger seed. Seeds are unsigned 16-bit integers
// transmitted as decimal strings.
func ParseSeed(seed string) (uint16, error) {
	n, err := strconv.ParseUint(seed, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSeed, seed)
	}
	return uint16(n), nil
}

// DeriveLedgerID derives the deterministic ledger identifier for a seed.
// The id is the hex encoding of BLAKE2b-256("state" || seed little-endian),
// so the same seed always addresses the same ledger.
func DeriveLedgerID(seed string) (string, error) {
	n, err := ParseSeed(seed)
	if err != nil {
		return "", err
	}

	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], n)

	sum := blake2b.Sum256(append([]byte("state"), buf[:]...))
	return hex.EncodeToString(sum[:]), nil
}

// chainHash computes the hash of an entry given its predecessor's hash and
// its own payload. Fields are separated by NUL so concatenation cannot be
// ambiguous.
func chainHash(prev []byte, seq uint64, sourceIP, threatType, actionTaken string) []byte {
	h, _ := blake2b.New256(nil)
	h.Write(prev)

	var seqBuf [8]byte
	binary.LittleEndian.PutUint64(seqBuf[:], seq)
	h.Write(seqBuf[:])

	for _, field := range []string{sourceIP, threatType, actionTaken} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}

	return h.Sum(nil)
}
