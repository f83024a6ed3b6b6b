// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

// Package main is the entry point for the Rayguard server.
//
// Rayguard is an intrusion-detection demo built around a tamper-evident
// threat ledger. Monitoring agents report intrusion signals; the classifier
// applies the response (terminate, reject, ban, alert); every confirmed
// event can be recorded in an append-only, hash-chained ledger and verified
// later by exact match. Recorded entries fan out live to WebSocket and SSE
// subscribers, optionally through an embedded NATS JetStream bus.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML file, env)
//  2. Logging: zerolog, JSON or console format
//  3. Ledger store: DuckDB (file or in-memory)
//  4. Ban registry: in-memory or BadgerDB
//  5. Alert dispatcher: httpSMS-backed, rate limited, circuit broken
//  6. Fan-out hub, optionally bridged over NATS JetStream
//  7. HTTP server under a suture supervisor tree
//
// Shutdown is graceful on SIGINT/SIGTERM: the supervisor drains the HTTP
// server, stops the hub and bridge, and the deferred closes release the
// stores.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/rayguard/rayguard/internal/api"
	"github.com/rayguard/rayguard/internal/banlist"
	"github.com/rayguard/rayguard/internal/bus"
	"github.com/rayguard/rayguard/internal/classify"
	"github.com/rayguard/rayguard/internal/config"
	"github.com/rayguard/rayguard/internal/fanout"
	"github.com/rayguard/rayguard/internal/ledger"
	"github.com/rayguard/rayguard/internal/logging"
	"github.com/rayguard/rayguard/internal/notify"
	"github.com/rayguard/rayguard/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("ban_store", cfg.Bans.Store).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Bool("notifier_enabled", cfg.Notifier.Enabled).
		Msg("Configuration loaded")

	// Ledger store.
	db, err := sql.Open("duckdb", cfg.Database.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing ledger database")
		}
	}()

	store := ledger.NewDuckDBStore(db)
	if err := store.CreateTables(context.Background()); err != nil {
		logging.Fatal().Err(err).Msg("Failed to create ledger schema")
	}

	// Ban registry.
	var registry banlist.Registry
	switch cfg.Bans.Store {
	case "badger":
		badgerRegistry, err := banlist.OpenBadgerRegistry(cfg.Bans.Path)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open ban registry")
		}
		defer func() {
			if err := badgerRegistry.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing ban registry")
			}
		}()
		registry = badgerRegistry
	default:
		registry = banlist.NewMemoryRegistry()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	// Alert dispatcher. Without a notifier the probe alerts go nowhere but
	// the classifier contract stays identical.
	var alerts classify.AlertSink
	if cfg.Notifier.Enabled {
		smsCfg := notify.HTTPSMSConfig{
			APIKey: cfg.Notifier.APIKey,
			From:   cfg.Notifier.From,
			To:     cfg.Notifier.To,
		}
		if cfg.Notifier.Endpoint != "" {
			smsCfg.Endpoint = cfg.Notifier.Endpoint
		}
		dispatcher := notify.NewDispatcher(notify.NewHTTPSMSNotifier(smsCfg), notify.DispatcherConfig{})
		tree.AddMessagingService(supervisor.NewRunnerService("alert-dispatcher", dispatcher))
		alerts = dispatcher
	}

	// Fan-out hub.
	hub := fanout.NewHub()
	tree.AddMessagingService(supervisor.NewRunnerService("fanout-hub", supervisor.RunnerFunc(hub.Run)))

	// Broadcast path: direct to the hub, or through JetStream when enabled.
	var broadcaster ledger.Broadcaster = hub
	if cfg.NATS.Enabled {
		natsURL := cfg.NATS.URL
		if cfg.NATS.EmbeddedServer {
			serverCfg := bus.DefaultServerConfig()
			serverCfg.StoreDir = cfg.NATS.StoreDir
			serverCfg.JetStreamMaxMem = cfg.NATS.MaxMemory
			serverCfg.JetStreamMaxStore = cfg.NATS.MaxStore

			embedded, err := bus.NewEmbeddedServer(&serverCfg)
			if err != nil {
				logging.Fatal().Err(err).Msg("Failed to start embedded NATS server")
			}
			defer func() {
				if err := embedded.Shutdown(context.Background()); err != nil {
					logging.Error().Err(err).Msg("Error shutting down NATS server")
				}
			}()
			natsURL = embedded.ClientURL()
		}

		if err := bus.ProvisionStream(ctx, natsURL); err != nil {
			logging.Fatal().Err(err).Msg("Failed to provision entry stream")
		}

		publisherCfg := bus.DefaultPublisherConfig(natsURL)
		publisher, err := bus.NewPublisher(&publisherCfg, nil)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create bus publisher")
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing bus publisher")
			}
		}()

		subscriberCfg := bus.DefaultSubscriberConfig(natsURL)
		subscriberCfg.DurableName = cfg.NATS.DurableName
		subscriberCfg.QueueGroup = cfg.NATS.QueueGroup
		subscriber, err := bus.NewSubscriber(&subscriberCfg, nil)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create bus subscriber")
		}
		defer func() {
			if err := subscriber.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing bus subscriber")
			}
		}()

		tree.AddMessagingService(supervisor.NewRunnerService("bus-bridge", bus.NewBridge(subscriber, hub)))
		broadcaster = publisher
	}

	// Core components.
	writer := ledger.NewWriter(store, broadcaster)
	verifier := ledger.NewVerifier(store)
	classifier := classify.NewClassifier(registry, alerts, cfg.Bans.TTL)

	// HTTP surface.
	handler := api.NewHandler(writer, verifier, classifier, hub)
	router := api.NewRouter(api.RouterConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
		RateLimitDisabled:  cfg.Server.RateLimitDisabled,
	}, handler, registry)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: cfg.Server.Timeout,
	}
	tree.AddAPIService(supervisor.NewHTTPServerService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))

	// Run until signaled.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	treeDone := tree.ServeBackground(ctx)
	logging.Info().Str("addr", server.Addr).Msg("Rayguard listening")

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
		<-treeDone
	case err := <-treeDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree stopped unexpectedly")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Shutdown complete")
}
