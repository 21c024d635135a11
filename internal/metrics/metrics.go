// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Postback results.
const (
	PostbackRecorded     = "recorded"
	PostbackDuplicate    = "duplicate"
	PostbackInvalid      = "invalid"
	PostbackUnauthorized = "unauthorized"
	PostbackNotFound     = "not_found"
	PostbackRateLimited  = "rate_limited"
	PostbackError        = "error"
)

var (
	// Ingestion
	PostbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpapulse_postbacks_total",
			Help: "Total number of postbacks by result",
		},
		[]string{"result"},
	)

	LeadsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cpapulse_leads_created_total",
			Help: "Total number of leads inserted",
		},
	)

	ClicksRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpapulse_clicks_recorded_total",
			Help: "Total number of clicks inserted by source",
		},
		[]string{"source"},
	)

	// Change detection
	DetectorPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cpapulse_detector_poll_duration_seconds",
			Help:    "Duration of change detector polls in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	DetectorPollErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cpapulse_detector_poll_errors_total",
			Help: "Total number of failed change detector polls",
		},
	)

	DetectorEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpapulse_detector_events_total",
			Help: "Total number of activity events published by kind",
		},
		[]string{"kind"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cpapulse_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	NATSForwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpapulse_nats_forwarded_total",
			Help: "Total number of activity events forwarded to NATS by result",
		},
		[]string{"result"},
	)

	// Live channel
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cpapulse_websocket_clients",
			Help: "Current number of connected live-channel clients",
		},
	)

	WebSocketBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpapulse_websocket_broadcasts_total",
			Help: "Total number of messages broadcast by type",
		},
		[]string{"type"},
	)

	WebSocketDroppedClients = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cpapulse_websocket_dropped_clients_total",
			Help: "Total number of clients dropped because their send buffer was full",
		},
	)

	StatsSnapshotDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cpapulse_stats_snapshot_duration_seconds",
			Help:    "Duration of stats snapshot computation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cpapulse_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpapulse_db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"operation"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpapulse_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cpapulse_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cpapulse_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Auth
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpapulse_auth_attempts_total",
			Help: "Total number of admin authentication attempts by kind and result",
		},
		[]string{"kind", "result"},
	)
)

// RecordPostback counts a postback outcome.
func RecordPostback(result string) {
	PostbacksTotal.WithLabelValues(result).Inc()
	if result == PostbackRecorded {
		LeadsCreated.Inc()
	}
}

// RecordClicks counts inserted clicks for a source.
func RecordClicks(source string, n int) {
	ClicksRecorded.WithLabelValues(source).Add(float64(n))
}

// RecordDetectorPoll records one change detector poll.
func RecordDetectorPoll(duration time.Duration, clicks, leads int, err error) {
	DetectorPollDuration.Observe(duration.Seconds())
	if err != nil {
		DetectorPollErrors.Inc()
		return
	}
	if clicks > 0 {
		DetectorEvents.WithLabelValues("click").Add(float64(clicks))
	}
	if leads > 0 {
		DetectorEvents.WithLabelValues("lead").Add(float64(leads))
	}
}

// SetCircuitBreakerState publishes a breaker state by its gobreaker name
// ("closed", "half-open", "open").
func SetCircuitBreakerState(name, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	CircuitBreakerState.WithLabelValues(name).Set(v)
}

// RecordNATSForward counts one forwarded event.
func RecordNATSForward(err error) {
	if err != nil {
		NATSForwarded.WithLabelValues("error").Inc()
		return
	}
	NATSForwarded.WithLabelValues("ok").Inc()
}

// RecordAuthAttempt counts an admin login ("login") or token check
// ("token").
func RecordAuthAttempt(kind string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	AuthAttempts.WithLabelValues(kind, result).Inc()
}

// RecordBroadcast counts a live-channel broadcast.
func RecordBroadcast(msgType string) {
	WebSocketBroadcasts.WithLabelValues(msgType).Inc()
}

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
