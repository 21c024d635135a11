// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cpapulse/internal/auth"
	"github.com/tomtom215/cpapulse/internal/middleware"
)

// Router wires handlers, authentication and middleware into a chi mux.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	authHandlers  *auth.Handlers
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. authHandlers may be nil when authentication
// is disabled; login then answers 404.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware, authHandlers *auth.Handlers) *Router {
	if authMiddleware == nil {
		authMiddleware = auth.NewMiddleware(auth.ModeNone, nil)
	}
	if authHandlers == nil {
		authHandlers = auth.NewHandlers(nil, nil, false)
	}

	var chiMw *ChiMiddleware
	if handler.config != nil {
		chiMw = NewChiMiddlewareFromSecurity(&handler.config.Security)
	} else {
		chiMw = NewChiMiddleware(nil)
	}

	return &Router{
		handler:       handler,
		auth:          authMiddleware,
		authHandlers:  authHandlers,
		chiMiddleware: chiMw,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	perf := router.handler.PerformanceMonitor()

	// Global middleware, applied to every route in order.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	// Probes and scraping stay outside rate limits.
	r.Get("/health/live", router.handler.HealthLive)
	r.Get("/health/ready", router.handler.HealthReady)
	r.Handle("/metrics", promhttp.Handler())

	// Postbacks come from network servers, with their own budget.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitPostback())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(perf.Middleware))

		r.Get("/api/postback", router.handler.Postback)
		r.Post("/api/postback", router.handler.Postback)
	})

	// Live channel: no compression or latency metrics on a hijacked conn.
	r.With(router.chiMiddleware.RateLimit()).Get("/api/ws", router.handler.WebSocket)

	r.With(router.chiMiddleware.RateLimitLogin(), APISecurityHeaders()).
		Post("/api/auth/login", router.authHandlers.Login)

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(perf.Middleware))
		r.Use(chiMiddleware(middleware.Compression))

		r.Get("/api/stats", router.handler.Stats)
		r.Get("/api/reports/subid", router.handler.SubIDReport)
		r.Get("/api/leads/recent", router.handler.RecentLeads)
		r.Get("/api/clicks/recent", router.handler.RecentClicks)
		r.Get("/api/clicks/track", router.handler.TrackClick)
		r.Post("/api/clicks/track", router.handler.TrackClick)

		// Management routes require an admin token when auth is enabled.
		r.Group(func(r chi.Router) {
			r.Use(router.auth.RequireAdmin)

			r.Route("/api/networks", func(r chi.Router) {
				r.Get("/", router.handler.ListNetworks)
				r.Post("/", router.handler.CreateNetwork)
				r.Get("/offers", router.handler.ListNetworkOffers)
				r.Post("/offers", router.handler.CreateNetworkOffer)
				r.Get("/{id}", router.handler.GetNetwork)
				r.Put("/{id}", router.handler.UpdateNetwork)
				r.Delete("/{id}", router.handler.DeleteNetwork)
			})
			r.Post("/api/seed", router.handler.Seed)
			r.Get("/api/performance", router.handler.Performance)
		})
	})

	return r
}
