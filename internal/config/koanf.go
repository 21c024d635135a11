// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cpapulse/config.yaml",
	"/etc/cpapulse/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3000,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Driver:       "duckdb",
			Path:         "/data/cpapulse.duckdb",
			DSN:          "",
			MaxMemory:    "1GB",
			Threads:      0, // 0 = runtime.NumCPU()
			MaxOpenConns: 0,
			SeedDemoData: false,
		},
		Ingest: IngestConfig{
			NetworkRate:  0,
			NetworkBurst: 50,
		},
		Stats: StatsConfig{
			Timezone: "Local",
		},
		Detector: DetectorConfig{
			Interval:        2 * time.Second,
			Lookback:        2 * time.Second,
			Dedupe:          true,
			DedupeCapacity:  10000,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Broadcast: BroadcastConfig{
			StatsInterval: 5 * time.Second,
			HubBuffer:     256,
			ClientBuffer:  256,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: false,
			StoreDir:       "/data/nats/jetstream",
			Subject:        "cpa.activity",
			MaxReconnects:  -1,
			ReconnectWait:  2 * time.Second,
		},
		Security: SecurityConfig{
			AuthMode:              "none",
			SessionTimeout:        24 * time.Hour,
			RateLimitReqs:         100,
			RateLimitWindow:       time.Minute,
			PostbackRateLimitReqs: 1000,
			RateLimitDisabled:     false,
			CORSOrigins:           []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration in three layers: struct defaults, an
// optional YAML file, then environment variables (highest priority).
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment cannot leak in.
var envMappings = map[string]string{
	// Server
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Database
	"db_driver":         "database.driver",
	"duckdb_path":       "database.path",
	"database_url":      "database.dsn",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"db_max_open_conns": "database.max_open_conns",
	"seed_demo_data":    "database.seed_demo_data",

	// Ingestion
	"postback_network_rate":  "ingest.network_rate",
	"postback_network_burst": "ingest.network_burst",

	// Stats
	"stats_timezone": "stats.timezone",

	// Change detector
	"detector_interval":         "detector.interval",
	"detector_lookback":         "detector.lookback",
	"detector_dedupe":           "detector.dedupe",
	"detector_dedupe_capacity":  "detector.dedupe_capacity",
	"detector_breaker_failures": "detector.breaker_failures",
	"detector_breaker_timeout":  "detector.breaker_timeout",

	// Broadcast
	"stats_broadcast_interval": "broadcast.stats_interval",
	"ws_hub_buffer":            "broadcast.hub_buffer",
	"ws_client_buffer":         "broadcast.client_buffer",

	// NATS
	"nats_enabled":        "nats.enabled",
	"nats_url":            "nats.url",
	"nats_embedded":       "nats.embedded_server",
	"nats_store_dir":      "nats.store_dir",
	"nats_subject":        "nats.subject",
	"nats_max_reconnects": "nats.max_reconnects",
	"nats_reconnect_wait": "nats.reconnect_wait",

	// Security
	"auth_mode":                    "security.auth_mode",
	"jwt_secret":                   "security.jwt_secret",
	"session_timeout":              "security.session_timeout",
	"admin_username":               "security.admin_username",
	"admin_password":               "security.admin_password",
	"rate_limit_requests":          "security.rate_limit_reqs",
	"rate_limit_window":            "security.rate_limit_window",
	"postback_rate_limit_requests": "security.postback_rate_limit_reqs",
	"disable_rate_limit":           "security.rate_limit_disabled",
	"cors_origins":                 "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps an environment variable name to its koanf path.
//
//   - HTTP_PORT -> server.port
//   - DUCKDB_PATH -> database.path
//   - DETECTOR_INTERVAL -> detector.interval
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
