// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package changefeed

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/cpapulse/internal/config"
	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/models"
)

func init() {
	logging.Init(logging.Config{Output: io.Discard})
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu     sync.Mutex
	clicks []models.ActivityRow
	leads  []models.ActivityRow
	err    error
	since  []time.Time
}

func (s *fakeStore) ClicksSince(_ context.Context, since time.Time) ([]models.ActivityRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.since = append(s.since, since)
	if s.err != nil {
		return nil, s.err
	}
	return s.clicks, nil
}

func (s *fakeStore) LeadsSince(_ context.Context, _ time.Time) ([]models.ActivityRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.leads, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ActivityEvent
	failID string
}

func (p *recordingPublisher) PublishActivity(_ context.Context, ev models.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev.Item.ID == p.failID {
		return errors.New("bus closed")
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) ids() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, len(p.events))
	for i, ev := range p.events {
		ids[i] = string(ev.Kind) + ":" + ev.Item.ID
	}
	return ids
}

func testConfig(dedupe bool) config.DetectorConfig {
	return config.DetectorConfig{
		Interval:        2 * time.Second,
		Lookback:        5 * time.Second,
		Dedupe:          dedupe,
		DedupeCapacity:  100,
		BreakerFailures: 2,
		BreakerTimeout:  time.Hour,
	}
}

func newTestDetector(store Store, pub Publisher, cfg config.DetectorConfig) *Detector {
	d := NewDetector(store, pub, cfg)
	d.now = func() time.Time { return testNow }
	return d
}

func sampleStore() *fakeStore {
	return &fakeStore{
		clicks: []models.ActivityRow{
			{ID: "c1", SubID: "", Country: "US", OfferName: "Offer A", CreatedAt: testNow.Add(-time.Second)},
			{ID: "c2", SubID: "sub2", Country: "DE", OfferName: "Offer B", CreatedAt: testNow.Add(-500 * time.Millisecond)},
		},
		leads: []models.ActivityRow{
			{ID: "l1", SubID: "sub1", Country: "UK", OfferName: "Offer A", Revenue: 2.5, CreatedAt: testNow.Add(-time.Second)},
		},
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDetector_PollPublishesInOrder(t *testing.T) {
	store := sampleStore()
	pub := &recordingPublisher{}
	d := newTestDetector(store, pub, testConfig(true))

	res, err := d.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if res.Clicks != 2 || res.Leads != 1 || res.Skipped {
		t.Errorf("Poll() = %+v, want 2 clicks 1 lead", res)
	}

	want := []string{"click:c1", "click:c2", "lead:l1"}
	if got := pub.ids(); !equalStrings(got, want) {
		t.Errorf("published = %v, want %v", got, want)
	}

	if got := store.since[0]; !got.Equal(testNow.Add(-5 * time.Second)) {
		t.Errorf("since = %v, want now minus lookback", got)
	}

	click := pub.events[0].Item
	if click.SubID != models.NoSubIDLabel {
		t.Errorf("click subId = %q, want %q", click.SubID, models.NoSubIDLabel)
	}
	if click.Revenue != nil {
		t.Error("click revenue should be omitted")
	}
	if click.CreatedAt != "2026-03-01T11:59:59.000Z" {
		t.Errorf("click createdAt = %q", click.CreatedAt)
	}

	lead := pub.events[2].Item
	if lead.Revenue == nil || *lead.Revenue != 2.5 {
		t.Errorf("lead revenue = %v, want 2.5", lead.Revenue)
	}
}

func TestDetector_Dedupe(t *testing.T) {
	tests := []struct {
		name       string
		dedupe     bool
		wantSecond int
	}{
		{"dedupe suppresses overlap", true, 0},
		{"no dedupe re-emits overlap", false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			d := newTestDetector(sampleStore(), pub, testConfig(tt.dedupe))

			if _, err := d.Poll(context.Background()); err != nil {
				t.Fatalf("first Poll() error = %v", err)
			}
			res, err := d.Poll(context.Background())
			if err != nil {
				t.Fatalf("second Poll() error = %v", err)
			}
			if got := res.Clicks + res.Leads; got != tt.wantSecond {
				t.Errorf("second poll published %d, want %d", got, tt.wantSecond)
			}
		})
	}
}

func TestDetector_NewRowsAfterOverlap(t *testing.T) {
	store := sampleStore()
	pub := &recordingPublisher{}
	d := newTestDetector(store, pub, testConfig(true))

	if _, err := d.Poll(context.Background()); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	store.mu.Lock()
	store.clicks = append(store.clicks, models.ActivityRow{ID: "c3", Country: "FR", CreatedAt: testNow})
	store.mu.Unlock()

	res, err := d.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if res.Clicks != 1 || res.Leads != 0 {
		t.Errorf("Poll() = %+v, want only the new click", res)
	}
	ids := pub.ids()
	if ids[len(ids)-1] != "click:c3" {
		t.Errorf("last published = %s, want click:c3", ids[len(ids)-1])
	}
}

func TestDetector_PublishFailureRetried(t *testing.T) {
	pub := &recordingPublisher{failID: "c2"}
	d := newTestDetector(sampleStore(), pub, testConfig(true))

	res, err := d.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if res.Clicks != 1 || res.Leads != 1 {
		t.Errorf("Poll() = %+v, want 1 click 1 lead", res)
	}

	pub.mu.Lock()
	pub.failID = ""
	pub.mu.Unlock()

	res, err = d.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if res.Clicks != 1 || res.Leads != 0 {
		t.Errorf("retry Poll() = %+v, want the failed click only", res)
	}
}

func TestDetector_StorageErrorsTripBreaker(t *testing.T) {
	store := &fakeStore{err: errors.New("database is locked")}
	pub := &recordingPublisher{}
	d := newTestDetector(store, pub, testConfig(true))

	for i := 0; i < 2; i++ {
		if _, err := d.Poll(context.Background()); err == nil {
			t.Fatalf("Poll() #%d should fail", i)
		}
	}

	res, err := d.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() with open breaker error = %v", err)
	}
	if !res.Skipped {
		t.Error("Poll() should be skipped while the breaker is open")
	}
	if n := len(store.since); n != 2 {
		t.Errorf("storage queried %d times, want 2", n)
	}
}

func TestDetector_ServeStopsOnCancel(t *testing.T) {
	cfg := testConfig(true)
	cfg.Interval = 10 * time.Millisecond
	cfg.Lookback = 10 * time.Millisecond
	pub := &recordingPublisher{}
	d := NewDetector(sampleStore(), pub, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(pub.ids()) < 3 {
		select {
		case <-deadline:
			t.Fatal("detector did not publish")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not stop")
	}

	if got := len(pub.ids()); got != 3 {
		t.Errorf("published %d events, want 3 with dedupe", got)
	}
}

func TestNewDetector_Defaults(t *testing.T) {
	d := NewDetector(&fakeStore{}, &recordingPublisher{}, config.DetectorConfig{})
	if d.interval != 2*time.Second || d.lookback != 2*time.Second {
		t.Errorf("interval/lookback = %v/%v, want 2s/2s", d.interval, d.lookback)
	}
	if d.seen != nil {
		t.Error("dedupe should be off when not configured")
	}
	if d.String() != "change-detector" {
		t.Errorf("String() = %q", d.String())
	}
}
