// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package api

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/cpapulse/internal/config"
	"github.com/tomtom215/cpapulse/internal/database"
	"github.com/tomtom215/cpapulse/internal/ingest"
	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/middleware"
	"github.com/tomtom215/cpapulse/internal/stats"
	ws "github.com/tomtom215/cpapulse/internal/websocket"
)

const (
	maxBodyBytes = 64 << 10
	recentLimit  = 10
)

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_postback.go: conversion ingestion
//   - handlers_stats.go: stats, sub-id report, recent activity
//   - handlers_clicks.go: click tracking
//   - handlers_networks.go: network management
//   - handlers_seed.go, handlers_health.go, handlers_websocket.go,
//     handlers_performance.go
type Handler struct {
	db        *database.DB
	ingest    *ingest.Service
	stats     *stats.Engine
	wsHub     *ws.Hub
	config    *config.Config
	perfMon   *middleware.PerformanceMonitor
	startTime time.Time
}

// NewHandler creates the API handler.
//
//	handler := api.NewHandler(db, ingestSvc, statsEngine, hub, cfg)
//	router := api.NewRouter(handler, authMiddleware, authHandlers)
//	srv := &http.Server{Handler: router.SetupChi()}
func NewHandler(db *database.DB, ingestSvc *ingest.Service, statsEngine *stats.Engine, wsHub *ws.Hub, cfg *config.Config) *Handler {
	return &Handler{
		db:        db,
		ingest:    ingestSvc,
		stats:     statsEngine,
		wsHub:     wsHub,
		config:    cfg,
		perfMon:   middleware.NewPerformanceMonitor(1000, time.Second),
		startTime: time.Now(),
	}
}

// PerformanceMonitor returns the request latency monitor fed by the router.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}

// getUpgrader creates the live channel upgrader with origin checking.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts browsers from a configured CORS origin or
// from the serving host itself. A missing Origin is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if h.config != nil {
		for _, allowed := range h.config.Security.CORSOrigins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
	}

	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
