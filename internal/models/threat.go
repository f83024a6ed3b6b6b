// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

// Package models defines the threat event domain types shared across the
// classifier, the ledger, and the HTTP surface.
package models

import "time"

// ThreatType categorizes an observed intrusion signal.
type ThreatType string

const (
	// ThreatTypeU2R is an unauthorized privilege escalation attempt.
	ThreatTypeU2R ThreatType = "U2R"

	// ThreatTypeR2L is an unauthorized remote access attempt.
	ThreatTypeR2L ThreatType = "R2L"

	// ThreatTypeDOS is a denial-of-service attempt.
	ThreatTypeDOS ThreatType = "DOS"

	// ThreatTypeProbe is reconnaissance activity.
	ThreatTypeProbe ThreatType = "PROBE"
)

// Action names the response taken against a threat.
type Action string

const (
	ActionTerminated   Action = "TERMINATED"
	ActionUnauthorized Action = "UNAUTHORIZED"
	ActionBlockIP      Action = "BLOCK_IP"
	ActionNotify       Action = "NOTIFY"
)

// ThreatEvent is a single recorded threat observation. The ledger stores the
// string fields verbatim; verification is an exact, case-sensitive match, so
// the values are never normalized after creation.
type ThreatEvent struct {
	// LedgerID identifies the ledger the event belongs to.
	LedgerID string `json:"ledger"`

	// SourceIP is the address the threat originated from.
	SourceIP string `json:"ipAddress"`

	// ThreatType is the classification of the threat.
	ThreatType string `json:"threatType"`

	// ActionTaken is the response that was applied.
	ActionTaken string `json:"actionTaken"`
}

// Complete reports whether every field required for admission is present.
func (e ThreatEvent) Complete() bool {
	return e.LedgerID != "" && e.SourceIP != "" && e.ThreatType != "" && e.ActionTaken != ""
}

// LedgerEntry is a ThreatEvent as recorded: sequenced, timestamped, and
// hash-chained to its predecessor.
type LedgerEntry struct {
	LedgerID    string    `json:"ledger"`
	Seq         uint64    `json:"seq"`
	Timestamp   time.Time `json:"timestamp"`
	SourceIP    string    `json:"ipAddress"`
	ThreatType  string    `json:"threatType"`
	ActionTaken string    `json:"actionTaken"`
	PrevHash    []byte    `json:"prevHash"`
	CurrHash    []byte    `json:"currHash"`
}

// Matches reports whether the entry's payload fields exactly equal the
// event's. LedgerID is matched by the store query, not here.
func (le LedgerEntry) Matches(e ThreatEvent) bool {
	return le.SourceIP == e.SourceIP &&
		le.ThreatType == e.ThreatType &&
		le.ActionTaken == e.ActionTaken
}
