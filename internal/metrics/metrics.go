// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

// Package metrics provides Prometheus instrumentation for the HTTP surface,
// the ledger, the ban registry, the fan-out hub, and the notifier.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	AdmissionRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admission_rejections_total",
			Help: "Total number of requests rejected by the admission gate",
		},
	)

	// Ledger Metrics
	LedgersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgers_created_total",
			Help: "Total number of ledgers created",
		},
	)

	LedgerAppends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_appends_total",
			Help: "Total number of entries appended to ledgers",
		},
		[]string{"threat_type"},
	)

	LedgerAppendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_append_errors_total",
			Help: "Total number of failed ledger appends",
		},
	)

	Verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_verifications_total",
			Help: "Total number of verification queries by outcome",
		},
		[]string{"verified"},
	)

	// Classifier Metrics
	SignalsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_classified_total",
			Help: "Total number of agent signals classified",
		},
		[]string{"threat_type"},
	)

	BansAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bans_added_total",
			Help: "Total number of identifiers added to the ban registry",
		},
	)

	// Fan-out Metrics
	FanoutSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fanout_subscribers",
			Help: "Current number of live fan-out subscribers",
		},
	)

	FanoutBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanout_broadcasts_total",
			Help: "Total number of entries broadcast to subscribers",
		},
	)

	FanoutDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanout_drops_total",
			Help: "Total number of subscribers dropped for lagging",
		},
	)

	// Notifier Metrics
	NotifierSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_sends_total",
			Help: "Total number of outbound notification attempts by result",
		},
		[]string{"result"}, // "success", "failure", "rejected"
	)

	NotifierQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notifier_queue_depth",
			Help: "Current depth of the notifier dispatch queue",
		},
	)

	// NATS Event Bus Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of messages published to NATS",
		},
	)

	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of messages consumed from NATS",
		},
	)

	NATSMessagesParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_parse_failed_total",
			Help: "Total number of messages that failed to parse",
		},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAdmissionRejection records a request blocked by the admission gate.
func RecordAdmissionRejection() {
	AdmissionRejections.Inc()
}

// RecordLedgerCreate records a ledger creation.
func RecordLedgerCreate() {
	LedgersCreated.Inc()
}

// RecordLedgerAppend records a successful ledger append.
func RecordLedgerAppend(threatType string) {
	LedgerAppends.WithLabelValues(threatType).Inc()
}

// RecordLedgerAppendError records a failed ledger append.
func RecordLedgerAppendError() {
	LedgerAppendErrors.Inc()
}

// RecordVerification records a verification query outcome.
func RecordVerification(verified bool) {
	if verified {
		Verifications.WithLabelValues("true").Inc()
	} else {
		Verifications.WithLabelValues("false").Inc()
	}
}

// RecordSignal records a classified agent signal.
func RecordSignal(threatType string) {
	SignalsClassified.WithLabelValues(threatType).Inc()
}

// RecordBanAdded records an identifier added to the ban registry.
func RecordBanAdded() {
	BansAdded.Inc()
}

// TrackSubscriber tracks live fan-out subscribers.
func TrackSubscriber(inc bool) {
	if inc {
		FanoutSubscribers.Inc()
	} else {
		FanoutSubscribers.Dec()
	}
}

// RecordBroadcast records an entry broadcast to subscribers.
func RecordBroadcast() {
	FanoutBroadcasts.Inc()
}

// RecordSubscriberDrop records a subscriber dropped for lagging.
func RecordSubscriberDrop() {
	FanoutDrops.Inc()
}

// RecordNotifierSend records an outbound notification attempt.
func RecordNotifierSend(result string) {
	NotifierSends.WithLabelValues(result).Inc()
}

// UpdateNotifierQueueDepth updates the notifier queue depth gauge.
func UpdateNotifierQueueDepth(depth int) {
	NotifierQueueDepth.Set(float64(depth))
}

// RecordNATSPublish records a message published to NATS.
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSConsume records a message consumed from NATS.
func RecordNATSConsume() {
	NATSMessagesConsumed.Inc()
}

// RecordNATSParseFailed records a message that failed to parse.
func RecordNATSParseFailed() {
	NATSMessagesParseFailed.Inc()
}
