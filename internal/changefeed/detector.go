// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package changefeed

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cpapulse/internal/cache"
	"github.com/tomtom215/cpapulse/internal/config"
	"github.com/tomtom215/cpapulse/internal/eventprocessor"
	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/metrics"
	"github.com/tomtom215/cpapulse/internal/models"
)

// dedupeTTLFactor sizes the dedupe TTL relative to the lookback.
const dedupeTTLFactor = 4

// Store reads recently created activity.
type Store interface {
	ClicksSince(ctx context.Context, since time.Time) ([]models.ActivityRow, error)
	LeadsSince(ctx context.Context, since time.Time) ([]models.ActivityRow, error)
}

// Publisher delivers events. PublishActivity returns once the event has been
// handed to every consumer.
type Publisher interface {
	PublishActivity(ctx context.Context, ev models.ActivityEvent) error
}

// PollResult reports one poll.
type PollResult struct {
	Clicks  int
	Leads   int
	Skipped bool // breaker open
}

// Detector is the polling change detector. It implements suture.Service.
type Detector struct {
	store     Store
	publisher Publisher
	interval  time.Duration
	lookback  time.Duration
	breaker   *gobreaker.CircuitBreaker[interface{}]
	seen      *cache.SeenSet // nil when dedupe is disabled
	now       func() time.Time
}

type activityBatch struct {
	clicks []models.ActivityRow
	leads  []models.ActivityRow
}

// NewDetector creates a detector. A zero lookback defaults to the interval.
func NewDetector(store Store, publisher Publisher, cfg config.DetectorConfig) *Detector {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = cfg.Interval
	}

	d := &Detector{
		store:     store,
		publisher: publisher,
		interval:  cfg.Interval,
		lookback:  cfg.Lookback,
		breaker: eventprocessor.NewCircuitBreaker(eventprocessor.CircuitBreakerConfig{
			Name:             "detector-storage",
			MaxRequests:      1,
			Timeout:          cfg.BreakerTimeout,
			FailureThreshold: cfg.BreakerFailures,
		}),
		now: time.Now,
	}
	if cfg.Dedupe {
		d.seen = cache.NewSeenSet(cfg.DedupeCapacity, dedupeTTLFactor*cfg.Lookback)
	}
	return d
}

// Serve polls every interval until ctx is done.
func (d *Detector) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", d.interval).
		Dur("lookback", d.lookback).
		Bool("dedupe", d.seen != nil).
		Msg("Change detector started")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	var sweep <-chan time.Time
	if d.seen != nil {
		sweepTicker := time.NewTicker(dedupeTTLFactor * d.lookback)
		defer sweepTicker.Stop()
		sweep = sweepTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := d.Poll(ctx); err != nil && ctx.Err() == nil {
				logging.Warn().Err(err).Msg("Change detector poll failed")
			}
		case <-sweep:
			d.seen.Sweep()
		}
	}
}

// String names the service in supervisor logs.
func (d *Detector) String() string {
	return "change-detector"
}

// Poll runs one detection pass and publishes what it finds.
func (d *Detector) Poll(ctx context.Context) (PollResult, error) {
	start := time.Now()
	since := d.now().Add(-d.lookback)

	res, err := d.breaker.Execute(func() (interface{}, error) {
		clicks, err := d.store.ClicksSince(ctx, since)
		if err != nil {
			return nil, fmt.Errorf("query new clicks: %w", err)
		}
		leads, err := d.store.LeadsSince(ctx, since)
		if err != nil {
			return nil, fmt.Errorf("query new leads: %w", err)
		}
		return activityBatch{clicks: clicks, leads: leads}, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return PollResult{Skipped: true}, nil
	}
	if err != nil {
		metrics.RecordDetectorPoll(time.Since(start), 0, 0, err)
		return PollResult{}, err
	}

	batch, ok := res.(activityBatch)
	if !ok {
		return PollResult{}, fmt.Errorf("unexpected poll result type %T", res)
	}
	result := PollResult{
		Clicks: d.emit(ctx, models.ActivityClick, batch.clicks),
		Leads:  d.emit(ctx, models.ActivityLead, batch.leads),
	}
	metrics.RecordDetectorPoll(time.Since(start), result.Clicks, result.Leads, nil)
	return result, nil
}

// emit publishes rows in order and returns how many were published. A row
// that fails to publish is forgotten so the next overlapping poll retries it.
func (d *Detector) emit(ctx context.Context, kind models.ActivityKind, rows []models.ActivityRow) int {
	published := 0
	for _, row := range rows {
		key := string(kind) + ":" + row.ID
		if d.seen != nil && d.seen.Seen(key) {
			continue
		}

		ev := models.ActivityEvent{Kind: kind, Item: row.ClickItem()}
		if kind == models.ActivityLead {
			ev.Item = row.LeadItem()
		}

		if err := d.publisher.PublishActivity(ctx, ev); err != nil {
			if d.seen != nil {
				d.seen.Forget(key)
			}
			logging.Warn().Err(err).Str("key", key).Msg("Failed to publish activity event")
			continue
		}
		published++
	}
	return published
}
