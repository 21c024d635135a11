// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

/*
Package middleware provides the HTTP middleware shared by the API routes.

  - RequestID: reuses X-Request-ID or generates one, echoes it and stores it
    in the context for logging.Ctx.
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by the chi route pattern so /api/networks/{id} is one series.
  - Compression: gzip for clients that accept it (never for upgrades).
  - PerformanceMonitor: a sliding window of request latencies with
    percentiles, logged when slow and served on /api/performance.

The functions take and return http.HandlerFunc; the api package adapts them
to chi's r.Use.
*/
package middleware
