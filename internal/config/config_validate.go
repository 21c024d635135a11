// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateIngest,
		c.validateStats,
		c.validateDetector,
		c.validateBroadcast,
		c.validateNATS,
		c.validateSecurity,
		c.validateLogging,
		c.validateSupervisor,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

var validDrivers = map[string]bool{
	"duckdb":   true,
	"postgres": true,
}

func (c *Config) validateDatabase() error {
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("DB_DRIVER must be one of: duckdb, postgres")
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must not be negative")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.NetworkRate < 0 {
		return fmt.Errorf("POSTBACK_NETWORK_RATE must not be negative")
	}
	if c.Ingest.NetworkRate > 0 && c.Ingest.NetworkBurst < 1 {
		return fmt.Errorf("POSTBACK_NETWORK_BURST must be at least 1 when POSTBACK_NETWORK_RATE is set")
	}
	return nil
}

func (c *Config) validateStats() error {
	if _, err := c.Stats.Location(); err != nil {
		return fmt.Errorf("STATS_TIMEZONE %q is not a valid IANA time zone: %w", c.Stats.Timezone, err)
	}
	return nil
}

const minPollInterval = 100 * time.Millisecond

func (c *Config) validateDetector() error {
	if c.Detector.Interval < minPollInterval {
		return fmt.Errorf("DETECTOR_INTERVAL must be at least %v", minPollInterval)
	}
	if c.Detector.Lookback < c.Detector.Interval {
		return fmt.Errorf("DETECTOR_LOOKBACK must be at least DETECTOR_INTERVAL, or rows created between ticks are never seen")
	}
	if c.Detector.Dedupe && c.Detector.DedupeCapacity < 1 {
		return fmt.Errorf("DETECTOR_DEDUPE_CAPACITY must be at least 1 when DETECTOR_DEDUPE=true")
	}
	if c.Detector.BreakerFailures < 1 {
		return fmt.Errorf("DETECTOR_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateBroadcast() error {
	if c.Broadcast.StatsInterval < minPollInterval {
		return fmt.Errorf("STATS_BROADCAST_INTERVAL must be at least %v", minPollInterval)
	}
	if c.Broadcast.HubBuffer < 1 {
		return fmt.Errorf("WS_HUB_BUFFER must be at least 1")
	}
	if c.Broadcast.ClientBuffer < 1 {
		return fmt.Errorf("WS_CLIENT_BUFFER must be at least 1")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.URL == "" && !c.NATS.EmbeddedServer {
		return fmt.Errorf("NATS_URL is required when NATS_ENABLED=true and NATS_EMBEDDED=false")
	}
	if c.NATS.Subject == "" {
		return fmt.Errorf("NATS_SUBJECT is required when NATS_ENABLED=true")
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	return nil
}

var validAuthModes = map[string]bool{
	"none": true,
	"jwt":  true,
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
	minJWTSecretLength   = 32
	minAdminPasswordLen  = 8
)

func (c *Config) validateSecurity() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt")
	}
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production; " +
			"set AUTH_MODE=jwt or use ENVIRONMENT=development")
	}
	if c.Security.AuthMode == "jwt" {
		if err := c.validateJWTAuth(); err != nil {
			return err
		}
	}
	return c.validateRateLimits()
}

func (c *Config) validateJWTAuth() error {
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters when AUTH_MODE=jwt", minJWTSecretLength)
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value; generate one with: openssl rand -base64 32")
	}
	if c.Security.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME is required when AUTH_MODE=jwt")
	}
	if len(c.Security.AdminPassword) < minAdminPasswordLen {
		return fmt.Errorf("ADMIN_PASSWORD must be at least %d characters when AUTH_MODE=jwt", minAdminPasswordLen)
	}
	if containsPlaceholder(c.Security.AdminPassword) {
		return fmt.Errorf("ADMIN_PASSWORD contains a placeholder value")
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	for name, reqs := range map[string]int{
		"RATE_LIMIT_REQUESTS":          c.Security.RateLimitReqs,
		"POSTBACK_RATE_LIMIT_REQUESTS": c.Security.PostbackRateLimitReqs,
	} {
		if reqs < minRateLimitRequests || reqs > maxRateLimitRequests {
			return fmt.Errorf("%s must be between %d and %d", name, minRateLimitRequests, maxRateLimitRequests)
		}
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// ShouldWarnAboutCORS reports wildcard CORS combined with admin auth.
func (c *Config) ShouldWarnAboutCORS() bool {
	if c.Security.AuthMode == "none" {
		return false
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	if c.Supervisor.FailureThreshold <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_THRESHOLD must be positive")
	}
	if c.Supervisor.ShutdownTimeout <= 0 {
		return fmt.Errorf("SUPERVISOR_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction reports ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// placeholderPatterns catch credentials copied from an example file.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
