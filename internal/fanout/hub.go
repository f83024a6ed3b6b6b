// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

// Package fanout delivers recorded ledger entries to live subscribers over
// WebSocket and SSE. Delivery is best effort and at-most-once: subscribers
// that cannot keep up are dropped, and a new subscriber sees only entries
// recorded after it attached.
package fanout

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/rayguard/rayguard/internal/logging"
	"github.com/rayguard/rayguard/internal/metrics"
	"github.com/rayguard/rayguard/internal/models"
)

// MessageTypeEntry is the message type carrying a recorded ledger entry.
const MessageTypeEntry = "message"

// Message is a fan-out payload delivered to subscribers.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// subscriberSendBuffer bounds each subscriber's pending messages. A full
// buffer marks the subscriber as lagging and it is dropped.
const subscriberSendBuffer = 64

var subscriberSeq atomic.Uint64

// Subscriber is one live listener's registration with the hub. Both the
// WebSocket client and the SSE handler consume through it.
type Subscriber struct {
	id   uint64
	send chan Message
}

// NewSubscriber allocates an unregistered subscriber.
func NewSubscriber() *Subscriber {
	return &Subscriber{
		id:   subscriberSeq.Add(1),
		send: make(chan Message, subscriberSendBuffer),
	}
}

// Receive returns the subscriber's message stream. The channel closes when
// the hub drops or unregisters the subscriber.
func (s *Subscriber) Receive() <-chan Message {
	return s.send
}

// Hub maintains the set of live subscribers and broadcasts entries to them.
type Hub struct {
	subscribers map[*Subscriber]bool
	broadcast   chan Message
	Register    chan *Subscriber
	Unregister  chan *Subscriber
	done        chan struct{}
	mu          sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:   make(chan Message, 256),
		Register:    make(chan *Subscriber),
		Unregister:  make(chan *Subscriber),
		done:        make(chan struct{}),
		subscribers: make(map[*Subscriber]bool),
	}
}

// Attach registers sub with the hub. A hub that has already stopped closed
// every subscription, so the registration is silently dropped rather than
// blocking the caller.
func (h *Hub) Attach(sub *Subscriber) {
	select {
	case h.Register <- sub:
	case <-h.done:
	}
}

// Detach unregisters sub. Safe to call after the hub has stopped; the
// shutdown path already closed the subscription.
func (h *Hub) Detach(sub *Subscriber) {
	select {
	case h.Unregister <- sub:
	case <-h.done:
	}
}

// Run services registrations and broadcasts until the context is canceled.
// Designed for suture supervision; on cancellation every subscriber is
// closed so a restart never leaks connections.
//
// Selection is priority ordered (shutdown, then lifecycle, then broadcast)
// so subscriber state is consistent before any message is delivered.
func (h *Hub) Run(ctx context.Context) error {
	for {
		// Priority 1: shutdown (non-blocking check)
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: subscriber lifecycle (non-blocking check)
		select {
		case sub := <-h.Register:
			h.register(sub)
			continue
		case sub := <-h.Unregister:
			h.unregister(sub)
			continue
		default:
		}

		// Priority 3: broadcast, or block until anything arrives
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case sub := <-h.Register:
			h.register(sub)
		case sub := <-h.Unregister:
			h.unregister(sub)
		case message := <-h.broadcast:
			h.broadcastToSubscribers(message)
		}
	}
}

func (h *Hub) register(sub *Subscriber) {
	h.mu.Lock()
	h.subscribers[sub] = true
	total := len(h.subscribers)
	h.mu.Unlock()

	metrics.TrackSubscriber(true)
	logging.Info().Int("total_subscribers", total).Msg("fanout subscriber attached")
}

func (h *Hub) unregister(sub *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		close(sub.send)
		metrics.TrackSubscriber(false)
	}
	total := len(h.subscribers)
	h.mu.Unlock()

	logging.Info().Int("total_subscribers", total).Msg("fanout subscriber detached")
}

// broadcastToSubscribers delivers a message to every subscriber in id order.
// Deterministic ordering keeps delivery reproducible under test; a
// subscriber with a full buffer is dropped rather than blocking the rest.
func (h *Hub) broadcastToSubscribers(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := make([]*Subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].id < subs[j].id
	})

	var toRemove []*Subscriber
	for _, sub := range subs {
		select {
		case sub.send <- message:
		default:
			toRemove = append(toRemove, sub)
		}
	}

	for _, sub := range toRemove {
		close(sub.send)
		delete(h.subscribers, sub)
		metrics.TrackSubscriber(false)
		metrics.RecordSubscriberDrop()
		logging.Warn().Uint64("subscriber", sub.id).Msg("lagging subscriber dropped")
	}

	metrics.RecordBroadcast()
}

// shutdown closes every subscriber in id order and logs the stop. Context
// cancellation is expected behavior, so it is not logged as an error.
func (h *Hub) shutdown(ctx context.Context) {
	close(h.done)

	h.mu.Lock()
	subs := make([]*Subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].id < subs[j].id
	})
	for _, sub := range subs {
		close(sub.send)
		delete(h.subscribers, sub)
		metrics.TrackSubscriber(false)
	}
	h.mu.Unlock()

	logging.Info().
		Str("component", "fanout-hub").
		Str("reason", ctx.Err().Error()).
		Int("subscribers_closed", len(subs)).
		Msg("fanout hub stopped")
}

// BroadcastEntry queues a recorded ledger entry for delivery. It never
// blocks; if the hub's queue is full the entry is dropped for live
// subscribers (it remains in the ledger).
func (h *Hub) BroadcastEntry(entry models.LedgerEntry) {
	message := Message{
		Type: MessageTypeEntry,
		Data: entry,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Msg("broadcast channel full, dropping entry message")
	}
}

// BroadcastRaw queues pre-serialized entry JSON, as consumed from the event
// bus, for delivery.
func (h *Hub) BroadcastRaw(data []byte) {
	var entry models.LedgerEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		metrics.RecordNATSParseFailed()
		logging.Warn().Err(err).Msg("failed to unmarshal entry for broadcast")
		return
	}
	h.BroadcastEntry(entry)
}

// SubscriberCount returns the number of attached subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
