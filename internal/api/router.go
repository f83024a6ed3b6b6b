// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rayguard/rayguard/internal/banlist"
	"github.com/rayguard/rayguard/internal/middleware"
)

// RouterConfig holds the HTTP-surface knobs.
type RouterConfig struct {
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	RateLimitDisabled  bool
}

// DefaultRouterConfig returns defaults suitable for the demo deployment.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CORSAllowedOrigins: []string{},
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
	}
}

// Router assembles the route tree.
type Router struct {
	config   RouterConfig
	handler  *Handler
	registry banlist.Registry
}

// NewRouter creates a router over the handler set and ban registry.
func NewRouter(config RouterConfig, handler *Handler, registry banlist.Registry) *Router {
	return &Router{
		config:   config,
		handler:  handler,
		registry: registry,
	}
}

// Setup builds the HTTP handler. Every application route sits behind the
// admission gate; only the operational endpoints (/healthz, /metrics) bypass
// it so monitoring keeps working while a probe floods the gate.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.config.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "ip"},
		MaxAge:         86400,
	}))

	// Operational endpoints: ungated, unmetered.
	r.Get("/healthz", router.handler.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Application surface.
	r.Group(func(r chi.Router) {
		r.Use(router.rateLimit())
		r.Use(AdmissionGate(router.registry))

		// Streaming routes skip PrometheusMetrics: the wrapped response
		// writer would hide the Flusher and Hijacker interfaces.
		r.Get("/sse", router.handler.SSE)
		r.Get("/ws", router.handler.WebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.PrometheusMetrics)

			r.Get("/resource", router.handler.Resource)
			r.Post("/agent", router.handler.Agent)
			r.Post("/createLedger", router.handler.CreateLedger)
			r.Post("/addLog", router.handler.AddLog)
			r.Post("/verify", router.handler.Verify)
		})
	})

	return r
}

// rateLimit returns the shared IP-based limiter, or a no-op when disabled.
func (router *Router) rateLimit() func(http.Handler) http.Handler {
	if router.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.LimitByIP(
		router.config.RateLimitRequests,
		router.config.RateLimitWindow,
	)
}
