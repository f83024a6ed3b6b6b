// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestHTTPSMSNotifierSend(t *testing.T) {
	var gotKey string
	var gotPayload smsPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewHTTPSMSNotifier(HTTPSMSConfig{
		Endpoint: srv.URL,
		APIKey:   "test-key",
		From:     "+15550001111",
		To:       "+15550002222",
	})

	err := n.Send(context.Background(), Alert{ThreatType: "PROBE", SourceIP: "1.2.3.4"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q, want %q", gotKey, "test-key")
	}
	if gotPayload.From != "+15550001111" || gotPayload.To != "+15550002222" {
		t.Errorf("payload addressing = %+v", gotPayload)
	}
	if gotPayload.Encrypted {
		t.Error("payload marked encrypted")
	}
	if !strings.Contains(gotPayload.Content, "PROBE") || !strings.Contains(gotPayload.Content, "1.2.3.4") {
		t.Errorf("payload content %q missing threat details", gotPayload.Content)
	}
}

func TestHTTPSMSNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewHTTPSMSNotifier(HTTPSMSConfig{Endpoint: srv.URL, APIKey: "wrong"})

	if err := n.Send(context.Background(), Alert{ThreatType: "PROBE"}); err == nil {
		t.Fatal("expected error for 401 response")
	}
}
