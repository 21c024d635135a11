// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

// Package main is the entry point for the CPA Pulse server.
//
// CPA Pulse records affiliate clicks and network conversion postbacks,
// computes revenue and EPC stats, and pushes new activity to dashboards over
// a websocket.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config.yaml, environment (Koanf v2)
//  2. Database: DuckDB file or PostgreSQL via pgx, with migrations
//  3. Ingest service and stats engine
//  4. Event bus, change detector, websocket hub, relay and stats pusher
//  5. NATS forwarder (optional, -tags nats)
//  6. Authentication: JWT admin login or none
//  7. HTTP server
//
// Every long-running component is a suture service in the supervisor tree:
// the detector in the data layer, hub, relay, pusher and forwarder in the
// messaging layer, the HTTP server in the API layer.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The tree stops the HTTP server
// first, then the messaging and data layers; the database closes last.
//
// # Example Usage
//
//	export AUTH_MODE=jwt
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_USERNAME=admin
//	export ADMIN_PASSWORD=secure-password
//	./cpapulse
//
// Development with demo data and no admin auth:
//
//	AUTH_MODE=none SEED_DEMO_DATA=true ./cpapulse
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/cpapulse/internal/api"
	"github.com/tomtom215/cpapulse/internal/auth"
	"github.com/tomtom215/cpapulse/internal/changefeed"
	"github.com/tomtom215/cpapulse/internal/config"
	"github.com/tomtom215/cpapulse/internal/database"
	"github.com/tomtom215/cpapulse/internal/eventprocessor"
	"github.com/tomtom215/cpapulse/internal/ingest"
	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/stats"
	"github.com/tomtom215/cpapulse/internal/supervisor"
	"github.com/tomtom215/cpapulse/internal/supervisor/services"
	ws "github.com/tomtom215/cpapulse/internal/websocket"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("driver", cfg.Database.Driver).
		Str("addr", cfg.Server.Addr()).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("nats", cfg.NATS.Enabled).
		Msg("Starting CPA Pulse")

	loc, err := cfg.Stats.Location()
	if err != nil {
		logging.Fatal().Err(err).Str("timezone", cfg.Stats.Timezone).Msg("Invalid stats timezone")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	if cfg.Database.SeedDemoData {
		res, err := db.SeedDemoData(context.Background(), nil)
		if err != nil {
			logging.Error().Err(err).Msg("Failed to seed demo data")
		} else {
			logging.Info().Int("clicks", res.Clicks).Int("leads", res.Leads).Msg("Demo data seeded")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg.Supervisor)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Domain services
	ingestSvc := ingest.NewService(db, ingest.NewNetworkLimiter(cfg.Ingest.NetworkRate, cfg.Ingest.NetworkBurst))
	statsEngine := stats.NewEngine(db, loc)

	// Activity pipeline: detector -> bus -> relay -> hub
	busLogger := watermill.NewSlogLogger(logging.NewComponentSlogLogger("eventbus"))
	bus := eventprocessor.NewBus(busLogger)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing event bus")
		}
	}()

	wsHub := ws.NewHub(cfg.Broadcast)
	tree.AddDataService(changefeed.NewDetector(db, bus, cfg.Detector))
	tree.AddMessagingService(wsHub)
	tree.AddMessagingService(ws.NewRelay(bus, wsHub))
	tree.AddMessagingService(ws.NewStatsPusher(statsEngine, wsHub, cfg.Broadcast.StatsInterval))

	if cfg.NATS.Enabled {
		bridge, err := eventprocessor.StartNATS(ctx, cfg.NATS, bus, busLogger)
		switch {
		case errors.Is(err, eventprocessor.ErrNATSNotEnabled):
			logging.Warn().Msg("NATS_ENABLED=true but NATS support not compiled (build with -tags nats)")
		case err != nil:
			logging.Fatal().Err(err).Msg("Failed to initialize NATS")
		default:
			defer bridge.Close(context.Background())
			tree.AddMessagingService(bridge.Forwarder())
			logging.Info().Str("subject", cfg.NATS.Subject).Msg("NATS forwarder added to supervisor tree")
		}
	}

	authMiddleware, authHandlers := initAuth(cfg)

	handler := api.NewHandler(db, ingestSvc, statsEngine, wsHub, cfg)
	router := api.NewRouter(handler, authMiddleware, authHandlers)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	if n := tree.LogUnstoppedServices(); n > 0 {
		logging.Warn().Int("count", n).Msg("Services failed to stop within timeout")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// initAuth builds the admin authentication for the configured mode. Config
// validation has already checked the JWT secret and admin credentials.
func initAuth(cfg *config.Config) (*auth.Middleware, *auth.Handlers) {
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	if cfg.Security.AuthMode != auth.ModeJWT {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Admin authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  Network management and demo seeding are publicly accessible.")
		logging.Warn().Msg("  Use AUTH_MODE=jwt outside local development.")
		logging.Warn().Msg("============================================================")
		return auth.NewMiddleware(auth.ModeNone, nil), auth.NewHandlers(nil, nil, false)
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	creds, err := auth.NewAdminCredentials(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize admin credentials")
	}
	logging.Info().Str("admin", cfg.Security.AdminUsername).Msg("JWT authentication enabled")

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin while admin authentication is enabled")
	}

	return auth.NewMiddleware(auth.ModeJWT, jwtManager), auth.NewHandlers(creds, jwtManager, cfg.IsProduction())
}

