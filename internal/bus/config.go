// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

// Package bus carries recorded ledger entries over NATS JetStream so that
// fan-out can be decoupled from the request path. A single-instance
// deployment runs the embedded server; multi-instance deployments point at
// an external NATS cluster via URL.
package bus

import "time"

// StreamName is the JetStream stream holding recorded entries.
const StreamName = "THREATS"

// TopicEntries is the subject recorded ledger entries are published on.
const TopicEntries = "threat.events"

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns defaults for the embedded server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   256 << 20, // 256MB
		JetStreamMaxStore: 1 << 30,  // 1GB
	}
}

// PublisherConfig holds publisher connection settings.
type PublisherConfig struct {
	URL             string
	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
}

// DefaultPublisherConfig returns defaults for a publisher at url.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:             url,
		MaxReconnects:   -1, // Unlimited
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 8 * 1024 * 1024, // 8MB
	}
}

// SubscriberConfig holds durable subscriber settings.
type SubscriberConfig struct {
	URL            string
	DurableName    string
	QueueGroup     string
	AckWaitTimeout time.Duration
	MaxDeliver     int
	MaxAckPending  int
	CloseTimeout   time.Duration
	MaxReconnects  int
	ReconnectWait  time.Duration
	StreamName     string
}

// DefaultSubscriberConfig returns defaults for a subscriber at url.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:            url,
		DurableName:    "threat-fanout",
		QueueGroup:     "fanout",
		AckWaitTimeout: 30 * time.Second,
		MaxDeliver:     5,
		MaxAckPending:  1000,
		CloseTimeout:   30 * time.Second,
		MaxReconnects:  -1,
		ReconnectWait:  2 * time.Second,
		StreamName:     StreamName,
	}
}

// StreamSettings defines the entry stream's retention limits.
type StreamSettings struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamSettings returns the default retention for recorded entries.
func DefaultStreamSettings() StreamSettings {
	return StreamSettings{
		Name:            StreamName,
		Subjects:        []string{"threat.>"},
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        1 << 30, // 1GB
		MaxMsgs:         -1,      // Unlimited
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}
