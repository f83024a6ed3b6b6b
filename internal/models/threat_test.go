// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package models

import "testing"

func TestThreatEventComplete(t *testing.T) {
	tests := []struct {
		name  string
		event ThreatEvent
		want  bool
	}{
		{
			name:  "all fields present",
			event: ThreatEvent{LedgerID: "l1", SourceIP: "1.1.1.1", ThreatType: "DOS", ActionTaken: "BLOCK_IP"},
			want:  true,
		},
		{
			name:  "missing ledger",
			event: ThreatEvent{SourceIP: "1.1.1.1", ThreatType: "DOS", ActionTaken: "BLOCK_IP"},
			want:  false,
		},
		{
			name:  "missing ip",
			event: ThreatEvent{LedgerID: "l1", ThreatType: "DOS", ActionTaken: "BLOCK_IP"},
			want:  false,
		},
		{
			name:  "missing threat type",
			event: ThreatEvent{LedgerID: "l1", SourceIP: "1.1.1.1", ActionTaken: "BLOCK_IP"},
			want:  false,
		},
		{
			name:  "missing action",
			event: ThreatEvent{LedgerID: "l1", SourceIP: "1.1.1.1", ThreatType: "DOS"},
			want:  false,
		},
		{
			name:  "empty",
			event: ThreatEvent{},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Complete(); got != tt.want {
				t.Errorf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLedgerEntryMatches(t *testing.T) {
	entry := LedgerEntry{SourceIP: "10.0.0.5", ThreatType: "DOS", ActionTaken: "BLOCK_IP"}

	tests := []struct {
		name  string
		event ThreatEvent
		want  bool
	}{
		{"exact match", ThreatEvent{SourceIP: "10.0.0.5", ThreatType: "DOS", ActionTaken: "BLOCK_IP"}, true},
		{"different ip", ThreatEvent{SourceIP: "10.0.0.6", ThreatType: "DOS", ActionTaken: "BLOCK_IP"}, false},
		{"case differs", ThreatEvent{SourceIP: "10.0.0.5", ThreatType: "dos", ActionTaken: "BLOCK_IP"}, false},
		{"different action", ThreatEvent{SourceIP: "10.0.0.5", ThreatType: "DOS", ActionTaken: "NOTIFY"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entry.Matches(tt.event); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
