// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

// Package config loads layered configuration with Koanf v2: built-in
// defaults, then an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Bans     BanConfig      `koanf:"bans"`
	NATS     NATSConfig     `koanf:"nats"`
	Notifier NotifierConfig `koanf:"notifier"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	Timeout           time.Duration `koanf:"timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// DatabaseConfig holds the DuckDB ledger store settings.
type DatabaseConfig struct {
	// Path is the database file; ":memory:" keeps the ledger in memory.
	Path string `koanf:"path"`
}

// BanConfig holds ban registry settings.
type BanConfig struct {
	// Store selects the registry backend: "memory" or "badger".
	Store string `koanf:"store"`

	// Path is the Badger directory when Store is "badger".
	Path string `koanf:"path"`

	// TTL bounds each ban's lifetime. Zero bans until restart (memory) or
	// removal (badger).
	TTL time.Duration `koanf:"ttl"`
}

// NATSConfig holds event bus settings.
type NATSConfig struct {
	// Enabled routes recorded entries through JetStream instead of handing
	// them straight to the fan-out hub.
	Enabled bool `koanf:"enabled"`

	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`
	DurableName    string `koanf:"durable_name"`
	QueueGroup     string `koanf:"queue_group"`
}

// NotifierConfig holds outbound SMS alert settings.
type NotifierConfig struct {
	Enabled bool   `koanf:"enabled"`
	APIKey  string `koanf:"api_key"`
	From    string `koanf:"from"`
	To      string `koanf:"to"`

	// Endpoint overrides the provider URL, mainly for tests.
	Endpoint string `koanf:"endpoint"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks cross-field constraints that koanf cannot express.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Bans.Store {
	case "memory":
	case "badger":
		if c.Bans.Path == "" {
			return fmt.Errorf("bans.path is required when bans.store is badger")
		}
	default:
		return fmt.Errorf("bans.store %q not recognized (memory, badger)", c.Bans.Store)
	}
	if c.Notifier.Enabled {
		if c.Notifier.APIKey == "" || c.Notifier.From == "" || c.Notifier.To == "" {
			return fmt.Errorf("notifier requires api_key, from, and to when enabled")
		}
	}
	return nil
}

// Addr returns the server's listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
