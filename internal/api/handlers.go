// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

// Package api exposes the HTTP surface: the protected resource, the agent
// signal intake, the ledger operations, and the live entry streams.
package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rayguard/rayguard/internal/classify"
	"github.com/rayguard/rayguard/internal/fanout"
	"github.com/rayguard/rayguard/internal/ledger"
	"github.com/rayguard/rayguard/internal/logging"
	"github.com/rayguard/rayguard/internal/models"
	"github.com/rayguard/rayguard/internal/validation"
)

// Handler carries the dependencies of every route.
type Handler struct {
	writer     *ledger.Writer
	verifier   *ledger.Verifier
	classifier *classify.Classifier
	hub        *fanout.Hub
}

// NewHandler creates the route handler set.
func NewHandler(writer *ledger.Writer, verifier *ledger.Verifier, classifier *classify.Classifier, hub *fanout.Hub) *Handler {
	return &Handler{
		writer:     writer,
		verifier:   verifier,
		classifier: classifier,
		hub:        hub,
	}
}

// decodeBody decodes and validates a JSON request body. On failure it writes
// the 400 response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validation.ValidateStruct(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// Resource serves the protected demo resource. Reaching it at all means the
// admission gate let the caller through.
func (h *Handler) Resource(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

// Agent accepts an intrusion signal from a monitoring agent and relays the
// classifier's verdict verbatim.
func (h *Handler) Agent(w http.ResponseWriter, r *http.Request) {
	var sig classify.Signal
	if !decodeBody(w, r, &sig) {
		return
	}

	outcome, err := h.classifier.Classify(r.Context(), sig)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("signal classification failed")
		writeMessage(w, http.StatusInternalServerError, "classification failed")
		return
	}

	writeMessage(w, outcome.Status, outcome.Message)
}

type createLedgerRequest struct {
	Seed string `json:"seed" validate:"required"`
}

// CreateLedger derives a ledger identifier from the seed and creates the
// ledger. Re-creating an existing seed returns the same identifier.
func (h *Handler) CreateLedger(w http.ResponseWriter, r *http.Request) {
	var req createLedgerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.writer.CreateLedger(r.Context(), req.Seed)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ledger.ErrInvalidSeed) {
			status = http.StatusBadRequest
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("ledger creation failed")
		writeMessage(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, createLedgerResponse{Message: "ok", Ledger: id})
}

type entryRequest struct {
	Ledger      string `json:"ledger" validate:"required"`
	IPAddress   string `json:"ipAddress" validate:"required"`
	ThreatType  string `json:"threatType" validate:"required"`
	ActionTaken string `json:"actionTaken" validate:"required"`
}

func (req entryRequest) event() models.ThreatEvent {
	return models.ThreatEvent{
		LedgerID:    req.Ledger,
		SourceIP:    req.IPAddress,
		ThreatType:  req.ThreatType,
		ActionTaken: req.ActionTaken,
	}
}

// AddLog appends a threat event to its ledger.
func (h *Handler) AddLog(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := h.writer.AddLog(r.Context(), req.event()); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ledger.ErrLedgerNotFound) {
			status = http.StatusNotFound
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("ledger append failed")
		writeMessage(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

// Verify reports whether an exactly matching entry was ever recorded in the
// named ledger. A store failure is a failed query, never "not verified".
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.verifier.Verify(r.Context(), req.event())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("verification query failed")
		writeJSON(w, http.StatusInternalServerError, verifyResponse{
			Success: false,
			Message: "verification failed",
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Success:  true,
		Message:  "verification complete",
		Verified: &result.Verified,
	})
}

// SSE streams recorded entries as Server-Sent Events.
func (h *Handler) SSE(w http.ResponseWriter, r *http.Request) {
	fanout.SSEHandler(h.hub)(w, r)
}

// WebSocket upgrades the connection and streams recorded entries.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	fanout.ServeWS(h.hub, w, r)
}

// Healthz reports process liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
