// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/rayguard/rayguard/internal/banlist"
	"github.com/rayguard/rayguard/internal/classify"
	"github.com/rayguard/rayguard/internal/fanout"
	"github.com/rayguard/rayguard/internal/ledger"
	"github.com/rayguard/rayguard/internal/logging"
)

//nolint:gochecknoinits // silence logs during tests
func init() {
	logging.Init(logging.Config{Output: io.Discard})
}

// newTestServer assembles the full route tree over in-memory backends.
func newTestServer(t *testing.T) (*httptest.Server, banlist.Registry) {
	t.Helper()

	store := ledger.NewMemoryStore()
	registry := banlist.NewMemoryRegistry()
	hub := fanout.NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Run(ctx) }()
	t.Cleanup(cancel)

	writer := ledger.NewWriter(store, hub)
	verifier := ledger.NewVerifier(store)
	classifier := classify.NewClassifier(registry, nil, 0)
	handler := NewHandler(writer, verifier, classifier, hub)

	cfg := DefaultRouterConfig()
	cfg.RateLimitDisabled = true
	router := NewRouter(cfg, handler, registry)

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)

	return srv, registry
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestResourceReturnsOK(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/resource")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body messageResponse
	decode(t, resp, &body)
	if body.Message != "ok" {
		t.Errorf("message = %q, want ok", body.Message)
	}
}

func TestAgentDOSBansReportedSource(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/agent", map[string]string{
		"type": "DOS",
		"data": "10.0.0.5",
	})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("agent status = %d, want 503", resp.StatusCode)
	}
	var body messageResponse
	decode(t, resp, &body)
	if body.Message != "SERVICE UNAVAILABLE" {
		t.Errorf("message = %q, want SERVICE UNAVAILABLE", body.Message)
	}

	// The banned source is now refused at the gate.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/resource", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("ip", "10.0.0.5")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp2.StatusCode != http.StatusForbidden {
		t.Errorf("gated status = %d, want 403", resp2.StatusCode)
	}
	var gated messageResponse
	decode(t, resp2, &gated)
	if gated.Message != suspendedMessage {
		t.Errorf("gated message = %q, want %q", gated.Message, suspendedMessage)
	}
}

func TestAgentDOSWithoutDataLeavesRegistryUnchanged(t *testing.T) {
	srv, registry := newTestServer(t)

	resp := postJSON(t, srv.URL+"/agent", map[string]string{"type": "DOS"})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	var body messageResponse
	decode(t, resp, &body)
	if body.Message != "USER NOT FOUND" {
		t.Errorf("message = %q, want USER NOT FOUND", body.Message)
	}

	mem, ok := registry.(*banlist.MemoryRegistry)
	if !ok {
		t.Fatalf("registry is %T", registry)
	}
	if mem.Len() != 0 {
		t.Errorf("registry has %d bans, want 0", mem.Len())
	}
}

func TestAgentVerdicts(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name    string
		signal  map[string]string
		status  int
		message string
	}{
		{"u2r", map[string]string{"type": "U2R"}, http.StatusForbidden, "PROCESS TERMINATED"},
		{"r2l", map[string]string{"type": "R2L"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"probe", map[string]string{"type": "PROBE", "data": "9.9.9.9"}, http.StatusNotAcceptable, "NOTIFIED"},
		{"unknown", map[string]string{"type": "dos"}, http.StatusBadRequest, "UNKNOWN SIGNAL TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/agent", tt.signal)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body messageResponse
			decode(t, resp, &body)
			if body.Message != tt.message {
				t.Errorf("message = %q, want %q", body.Message, tt.message)
			}
		})
	}
}

func TestAgentRejectsMissingType(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/agent", map[string]string{"data": "x"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLedgerLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	// Create.
	resp := postJSON(t, srv.URL+"/createLedger", map[string]string{"seed": "1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("createLedger status = %d, want 200", resp.StatusCode)
	}
	var created createLedgerResponse
	decode(t, resp, &created)
	if created.Message != "ok" || created.Ledger == "" {
		t.Fatalf("createLedger response = %+v", created)
	}

	// Append.
	entry := map[string]string{
		"ledger":      created.Ledger,
		"ipAddress":   "1.1.1.1",
		"threatType":  "DOS",
		"actionTaken": "BLOCK_IP",
	}
	resp = postJSON(t, srv.URL+"/addLog", entry)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("addLog status = %d, want 200", resp.StatusCode)
	}
	var empty map[string]interface{}
	decode(t, resp, &empty)
	if len(empty) != 0 {
		t.Errorf("addLog body = %v, want {}", empty)
	}

	// Verify the recorded entry.
	resp = postJSON(t, srv.URL+"/verify", entry)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status = %d, want 200", resp.StatusCode)
	}
	var verified verifyResponse
	decode(t, resp, &verified)
	if !verified.Success {
		t.Error("verify success = false, want true")
	}
	if verified.Verified == nil || !*verified.Verified {
		t.Error("verify verified = false, want true")
	}

	// A never-recorded entry does not verify.
	entry["ipAddress"] = "2.2.2.2"
	resp = postJSON(t, srv.URL+"/verify", entry)
	var unrecorded verifyResponse
	decode(t, resp, &unrecorded)
	if !unrecorded.Success {
		t.Error("verify success = false, want true")
	}
	if unrecorded.Verified == nil || *unrecorded.Verified {
		t.Error("verify verified = true, want false")
	}
}

func TestCreateLedgerSameSeedIsIdempotent(t *testing.T) {
	srv, _ := newTestServer(t)

	var first, second createLedgerResponse
	decode(t, postJSON(t, srv.URL+"/createLedger", map[string]string{"seed": "7"}), &first)
	decode(t, postJSON(t, srv.URL+"/createLedger", map[string]string{"seed": "7"}), &second)

	if first.Ledger != second.Ledger {
		t.Errorf("ledger ids differ: %q vs %q", first.Ledger, second.Ledger)
	}
}

func TestCreateLedgerRejectsBadSeed(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/createLedger", map[string]string{"seed": "not-a-number"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAddLogUnknownLedger(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/addLog", map[string]string{
		"ledger":      "deadbeef",
		"ipAddress":   "1.1.1.1",
		"threatType":  "DOS",
		"actionTaken": "BLOCK_IP",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestVerifyUnknownLedgerReportsFailure(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/verify", map[string]string{
		"ledger":      "deadbeef",
		"ipAddress":   "1.1.1.1",
		"threatType":  "DOS",
		"actionTaken": "BLOCK_IP",
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var body verifyResponse
	decode(t, resp, &body)
	if body.Success {
		t.Error("success = true, want false")
	}
	if body.Verified != nil {
		t.Error("verified present on failed query")
	}
	if body.Error == "" {
		t.Error("error detail missing")
	}
}

func TestHealthzBypassesGate(t *testing.T) {
	srv, registry := newTestServer(t)

	if err := registry.Add(context.Background(), "6.6.6.6", 0); err != nil {
		t.Fatalf("add ban: %v", err)
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("ip", "6.6.6.6")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}
}

func TestAddLogBroadcastsToSSE(t *testing.T) {
	srv, _ := newTestServer(t)

	var created createLedgerResponse
	decode(t, postJSON(t, srv.URL+"/createLedger", map[string]string{"seed": "3"}), &created)

	resp, err := http.Get(srv.URL + "/sse")
	if err != nil {
		t.Fatalf("sse get: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	// Give the subscriber a moment to register before appending.
	time.Sleep(50 * time.Millisecond)

	postJSON(t, srv.URL+"/addLog", map[string]string{
		"ledger":      created.Ledger,
		"ipAddress":   "8.8.8.8",
		"threatType":  "PROBE",
		"actionTaken": "NOTIFY",
	}).Body.Close()

	buf := make([]byte, 4096)
	n, err := resp.Body.Read(buf)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	chunk := string(buf[:n])
	if !bytes.Contains([]byte(chunk), []byte("event: message")) {
		t.Errorf("stream chunk missing event name: %q", chunk)
	}
	if !bytes.Contains([]byte(chunk), []byte("8.8.8.8")) {
		t.Errorf("stream chunk missing entry: %q", chunk)
	}
}
