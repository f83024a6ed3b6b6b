// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package fanout

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/rayguard/rayguard/internal/models"
)

func waitForSubscribers(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for hub.SubscriberCount() != want {
		select {
		case <-deadline:
			t.Fatalf("subscriber count never reached %d", want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSSEHandlerStreamsEntries(t *testing.T) {
	hub, _ := setupHub(t)

	srv := httptest.NewServer(SSEHandler(hub))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	waitForSubscribers(t, hub, 1)
	hub.BroadcastEntry(testEntry("5.5.5.5"))

	reader := bufio.NewReader(resp.Body)

	eventLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read event line: %v", err)
	}
	if strings.TrimSpace(eventLine) != "event: message" {
		t.Errorf("event line = %q, want %q", strings.TrimSpace(eventLine), "event: message")
	}

	dataLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read data line: %v", err)
	}
	payload := strings.TrimPrefix(strings.TrimSpace(dataLine), "data: ")

	var entry models.LedgerEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		t.Fatalf("unmarshal entry: %v", err)
	}
	if entry.SourceIP != "5.5.5.5" {
		t.Errorf("entry ip = %q, want 5.5.5.5", entry.SourceIP)
	}
}

func TestSSEHandlerDetachesOnDisconnect(t *testing.T) {
	hub, _ := setupHub(t)

	srv := httptest.NewServer(SSEHandler(hub))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	waitForSubscribers(t, hub, 1)
	resp.Body.Close()

	waitForSubscribers(t, hub, 0)
}
