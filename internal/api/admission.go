// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package api

import (
	"net/http"

	"github.com/rayguard/rayguard/internal/banlist"
	"github.com/rayguard/rayguard/internal/logging"
	"github.com/rayguard/rayguard/internal/metrics"
)

// admissionHeader is the header carrying the caller's claimed identity. The
// gate keys off this header, not the transport-level client address, so
// agents can attribute traffic they relay.
const admissionHeader = "ip"

// anonymousCaller is the identity assumed when the header is absent.
const anonymousCaller = "anonymous"

const suspendedMessage = "your account has been suspended due to malicious activity."

// AdmissionGate rejects requests from banned callers before they reach any
// handler. A registry failure closes the gate; banned callers must never slip
// through on an outage.
func AdmissionGate(registry banlist.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := r.Header.Get(admissionHeader)
			if caller == "" {
				caller = anonymousCaller
			}

			banned, err := registry.Check(r.Context(), caller)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("ban registry check failed")
				writeMessage(w, http.StatusServiceUnavailable, "SERVICE UNAVAILABLE")
				return
			}
			if banned {
				metrics.RecordAdmissionRejection()
				logging.Ctx(r.Context()).Warn().Str("caller", caller).Msg("banned caller rejected")
				writeMessage(w, http.StatusForbidden, suspendedMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
