// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

/*
Package api is the HTTP boundary of CPA Pulse.

Routes (chi):

	GET|POST /api/postback          conversion postback (network API key)
	GET      /api/stats             stats snapshot for a period
	GET      /api/reports/subid     per sub-id report for a period
	GET      /api/leads/recent      10 newest leads
	GET      /api/clicks/recent     10 newest clicks
	GET|POST /api/clicks/track      record a click
	GET      /api/ws                live channel
	POST     /api/auth/login        admin login
	*        /api/networks...       network management (admin)
	POST     /api/seed              demo data (admin)
	GET      /api/performance       request latency window (admin)
	GET      /health/live, /health/ready
	GET      /metrics

Every response body is plain JSON. Failures are {"error": "..."} with an
optional "details" array for validation errors. The package maps the
sentinel errors of ingest, stats and database to status codes; internal
errors are logged with the request id and never echoed.
*/
package api
