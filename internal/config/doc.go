// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

// Package config loads service configuration with koanf.
//
// Sources are layered: struct defaults, then an optional YAML file, then
// environment variables. Only variables listed in envMappings are read.
//
// Common variables:
//   - HTTP_PORT, HTTP_HOST, ENVIRONMENT
//   - DB_DRIVER (duckdb|postgres), DUCKDB_PATH, DATABASE_URL
//   - DETECTOR_INTERVAL, DETECTOR_LOOKBACK, STATS_BROADCAST_INTERVAL
//   - AUTH_MODE (none|jwt), JWT_SECRET, ADMIN_USERNAME, ADMIN_PASSWORD
//   - NATS_ENABLED, NATS_URL, NATS_EMBEDDED
//   - LOG_LEVEL, LOG_FORMAT
//
// Example config.yaml:
//
//	server:
//	  port: 3000
//	database:
//	  driver: postgres
//	  dsn: postgres://cpa:secret@db:5432/cpa?sslmode=disable
//	detector:
//	  interval: 2s
//	  lookback: 3s
package config
