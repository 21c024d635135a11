// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package ingest

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// NetworkLimiter is a token bucket per network.
type NetworkLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	lastSweep time.Time
}

// Idle limiters are dropped during a sweep; sweeps piggyback on Allow.
const (
	limiterMaxIdle    = time.Hour
	limiterSweepEvery = 10 * time.Minute
)

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewNetworkLimiter allows perSecond postbacks per network with the given
// burst. A perSecond of zero or less returns nil, which allows everything.
func NewNetworkLimiter(perSecond float64, burst int) *NetworkLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &NetworkLimiter{
		limiters:  make(map[string]*limiterEntry),
		rate:      rate.Limit(perSecond),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// Allow reports whether a postback from networkID may proceed.
func (l *NetworkLimiter) Allow(networkID string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	l.mu.Lock()
	if now.Sub(l.lastSweep) > limiterSweepEvery {
		l.sweep(now.Add(-limiterMaxIdle))
		l.lastSweep = now
	}
	entry, ok := l.limiters[networkID]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[networkID] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	l.mu.Unlock()

	return limiter.Allow()
}

// sweep drops limiters not used since threshold. Callers hold l.mu.
func (l *NetworkLimiter) sweep(threshold time.Time) {
	for id, entry := range l.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(l.limiters, id)
		}
	}
}
