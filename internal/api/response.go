// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rayguard/rayguard/internal/logging"
)

// messageResponse is the `{"message": ...}` body shared by most endpoints.
type messageResponse struct {
	Message string `json:"message"`
}

// createLedgerResponse acknowledges ledger creation and returns the derived
// identifier so the caller can address the ledger.
type createLedgerResponse struct {
	Message string `json:"message"`
	Ledger  string `json:"ledger"`
}

// verifyResponse reports a verification query. Success reflects whether the
// query ran; Verified reflects whether a matching entry exists. The two are
// orthogonal: a store failure is Success=false with Error set, never
// Verified=false.
type verifyResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Verified *bool  `json:"verified,omitempty"`
	Error    string `json:"error,omitempty"`
}

// writeJSON writes a JSON response with proper headers.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// writeMessage writes a `{"message": ...}` body with the given status.
func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, messageResponse{Message: message})
}
