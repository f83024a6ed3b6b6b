// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package fanout

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rayguard/rayguard/internal/logging"
)

// SSEHandler streams recorded entries to the client as Server-Sent Events.
// Each entry is emitted under the "message" event name. The stream starts at
// the moment of attachment; there is no replay.
func SSEHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		sub := NewSubscriber()
		hub.Attach(sub)
		// Unregistering an already-dropped subscriber is a no-op.
		defer hub.Detach(sub)

		for {
			select {
			case <-r.Context().Done():
				return

			case message, ok := <-sub.Receive():
				if !ok {
					return
				}

				data, err := json.Marshal(message.Data)
				if err != nil {
					logging.Ctx(r.Context()).Warn().Err(err).Msg("failed to marshal sse entry")
					continue
				}

				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", MessageTypeEntry, data)
				flusher.Flush()
			}
		}
	}
}
