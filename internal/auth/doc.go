// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

/*
Package auth guards the management API.

Postbacks authenticate with the network API key and never pass through this
package. Everything under /api/networks and /api/seed does, when
security.auth_mode is "jwt":

  - AdminCredentials holds the configured admin user with a bcrypt hash of
    the password, computed once at startup.
  - JWTManager issues and validates HS256 tokens.
  - Middleware.RequireAdmin accepts "Authorization: Bearer <token>" or the
    "token" cookie and stores the claims in the request context.
  - Handlers.Login exchanges credentials for a token.

With auth_mode "none" RequireAdmin passes every request through and login
answers 404.

Usage:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	creds, err := auth.NewAdminCredentials(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
	mw := auth.NewMiddleware(cfg.Security.AuthMode, jwtManager)

	r.Group(func(r chi.Router) {
	    r.Use(mw.RequireAdmin)
	    r.Post("/api/seed", h.Seed)
	})
*/
package auth
