// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Loading order (see LoadWithKoanf):
//  1. Built-in defaults
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/cpapulse/config.yaml)
//  3. Environment variables
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Ingest     IngestConfig     `koanf:"ingest"`
	Stats      StatsConfig      `koanf:"stats"`
	Detector   DetectorConfig   `koanf:"detector"`
	Broadcast  BroadcastConfig  `koanf:"broadcast"`
	NATS       NATSConfig       `koanf:"nats"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects and tunes the storage backend.
//
// Driver "duckdb" opens the embedded file at Path. Driver "postgres" connects
// to DSN through pgx.
type DatabaseConfig struct {
	Driver       string `koanf:"driver"`
	Path         string `koanf:"path"`
	DSN          string `koanf:"dsn"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	SeedDemoData bool   `koanf:"seed_demo_data"`
}

// IngestConfig tunes the postback endpoint.
type IngestConfig struct {
	// NetworkRate is the sustained postbacks per second allowed per network.
	// Zero disables per-network throttling.
	NetworkRate float64 `koanf:"network_rate"`

	// NetworkBurst is the token bucket size for NetworkRate.
	NetworkBurst int `koanf:"network_burst"`
}

// StatsConfig controls window resolution.
type StatsConfig struct {
	// Timezone is the IANA zone used for "start of day". Empty or "Local"
	// uses the server's local zone.
	Timezone string `koanf:"timezone"`
}

// Location resolves Timezone.
func (s StatsConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

// DetectorConfig controls the change detector poll loop.
type DetectorConfig struct {
	Interval        time.Duration `koanf:"interval"`
	Lookback        time.Duration `koanf:"lookback"`
	Dedupe          bool          `koanf:"dedupe"`
	DedupeCapacity  int           `koanf:"dedupe_capacity"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// BroadcastConfig controls the websocket hub and stats pusher.
type BroadcastConfig struct {
	StatsInterval time.Duration `koanf:"stats_interval"`
	HubBuffer     int           `koanf:"hub_buffer"`
	ClientBuffer  int           `koanf:"client_buffer"`
}

// NATSConfig enables forwarding of activity events to NATS JetStream.
// Requires a binary built with -tags=nats.
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	Subject        string        `koanf:"subject"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
}

// SecurityConfig holds admin authentication and HTTP protection settings.
type SecurityConfig struct {
	// AuthMode is "none" or "jwt". It guards the management routes only;
	// postbacks authenticate with the network API key.
	AuthMode       string        `koanf:"auth_mode"`
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	AdminUsername  string        `koanf:"admin_username"`
	AdminPassword  string        `koanf:"admin_password"`

	RateLimitReqs         int           `koanf:"rate_limit_reqs"`
	RateLimitWindow       time.Duration `koanf:"rate_limit_window"`
	PostbackRateLimitReqs int           `koanf:"postback_rate_limit_reqs"`
	RateLimitDisabled     bool          `koanf:"rate_limit_disabled"`
	CORSOrigins           []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logger settings passed to logging.Init.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes the suture tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Load reads configuration from defaults, an optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
