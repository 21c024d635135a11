// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

/*
Package metrics provides Prometheus metrics collection and export.

All collectors are registered with the default registry through promauto and
exposed at /metrics:

	curl http://localhost:3000/metrics

# Available Metrics

Ingestion:
  - cpapulse_postbacks_total{result}: postback outcomes
  - cpapulse_leads_created_total: leads inserted
  - cpapulse_clicks_recorded_total{source}: clicks inserted (track, seed)

Change detection:
  - cpapulse_detector_poll_duration_seconds: poll latency
  - cpapulse_detector_poll_errors_total: failed polls, including breaker rejections
  - cpapulse_detector_events_total{kind}: events published
  - cpapulse_circuit_breaker_state{name}: 0 closed, 1 half-open, 2 open

Live channel:
  - cpapulse_websocket_clients: connected clients
  - cpapulse_websocket_broadcasts_total{type}: messages broadcast
  - cpapulse_websocket_dropped_clients_total: clients evicted for a full buffer
  - cpapulse_stats_snapshot_duration_seconds: snapshot computation latency

Storage and HTTP:
  - cpapulse_db_query_duration_seconds{operation}
  - cpapulse_db_query_errors_total{operation}
  - cpapulse_api_requests_total{method,endpoint,status}
  - cpapulse_api_request_duration_seconds{method,endpoint}
  - cpapulse_api_active_requests
*/
package metrics
