// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

// Package tracker runs the discovery cycle: visit every tracked account,
// parse its timeline, confirm novelty against the store, and hand the fresh
// posts to the fanout. One account failing never stops the sweep; the store
// failing stops the cycle, because without the dedup arbiter every sighting
// would alert again.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/pitch6767/twitter-tracker25/internal/config"
	"github.com/pitch6767/twitter-tracker25/internal/extractor"
	"github.com/pitch6767/twitter-tracker25/internal/logging"
	"github.com/pitch6767/twitter-tracker25/internal/metrics"
	"github.com/pitch6767/twitter-tracker25/internal/models"
	"github.com/pitch6767/twitter-tracker25/internal/parser"
)

// Extractor pulls raw timeline hrefs for one account.
type Extractor interface {
	Extract(ctx context.Context, account models.TrackedAccount) ([]string, error)
}

// Store is the subset of the dedup store the tracker needs.
type Store interface {
	InsertPost(ctx context.Context, post *models.PostRecord) (bool, error)
}

// Deliverer receives the batch of confirmed-new posts at the end of a cycle.
type Deliverer interface {
	Deliver(ctx context.Context, records []*models.PostRecord)
}

// Manager orchestrates periodic discovery cycles.
type Manager struct {
	cfg       *config.TrackerConfig
	accounts  []models.TrackedAccount
	extractor Extractor
	store     Store
	deliverer Deliverer

	lastCycle time.Time
	running   bool
	mu        sync.RWMutex
	cycleMu   sync.Mutex // Prevents concurrent cycle execution
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewManager creates a tracker manager. The accounts slice is treated as
// immutable; each cycle reads a snapshot of it.
func NewManager(cfg *config.TrackerConfig, accounts []models.TrackedAccount, ext Extractor, store Store, deliverer Deliverer) *Manager {
	m := &Manager{
		cfg:       cfg,
		accounts:  accounts,
		extractor: ext,
		store:     store,
		deliverer: deliverer,
		stopChan:  make(chan struct{}),
	}

	logging.Info().
		Int("accounts", len(accounts)).
		Dur("cycle_interval", cfg.CycleInterval).
		Dur("jitter_min", cfg.JitterMin).
		Dur("jitter_max", cfg.JitterMax).
		Msg("Tracker manager config loaded")

	return m
}

// Start begins the periodic discovery process.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("tracker manager is already running")
	}
	m.running = true
	// Fresh channel per run so a supervisor restart works after Stop.
	m.stopChan = make(chan struct{})
	m.mu.Unlock()

	logging.Info().Msg("Starting tracker manager...")

	m.wg.Add(1)
	go m.trackLoop(ctx)

	return nil
}

// Stop gracefully shuts the discovery loop down. An extraction in flight
// finishes or times out before Stop returns.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("tracker manager is not running")
	}
	m.running = false
	m.mu.Unlock()

	logging.Info().Msg("Stopping tracker manager...")
	close(m.stopChan)
	m.wg.Wait()
	logging.Info().Msg("Tracker manager stopped")

	return nil
}

// stopCh returns the current run's stop channel.
func (m *Manager) stopCh() chan struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stopChan
}

// LastCycleTime returns when the most recent cycle handed off to the fanout,
// zero before the first cycle completes.
func (m *Manager) LastCycleTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastCycle
}

// trackLoop runs cycles back to back, re-arming a fixed interval measured
// from the fanout hand-off point of the previous cycle. Delivery time eats
// into the rest period rather than stretching the cadence.
func (m *Manager) trackLoop(ctx context.Context) {
	defer m.wg.Done()

	for {
		handoff := m.RunCycle(ctx)

		var wait time.Duration
		if !handoff.IsZero() {
			wait = time.Until(handoff.Add(m.cfg.CycleInterval))
		} else {
			wait = m.cfg.CycleInterval
		}
		if wait < 0 {
			wait = 0
		}

		select {
		case <-time.After(wait):
		case <-m.stopCh():
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunCycle performs one full discovery sweep and returns the fanout
// hand-off timestamp, or the zero time if the cycle was aborted before
// hand-off.
func (m *Manager) RunCycle(ctx context.Context) time.Time {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	cycleStart := time.Now()
	accounts := m.accounts // Immutable snapshot for the whole sweep

	var newRecords []*models.PostRecord

	for i, account := range accounts {
		// Jitter separates account visits; the first one starts at once.
		if i > 0 && !m.sleepJitter(ctx) {
			return time.Time{}
		}

		candidates, err := m.extractAccount(ctx, account)
		if err != nil {
			// One account failing is isolated; the sweep continues.
			logging.Warn().
				Err(err).
				Str("handle", account.Handle).
				Msg("Account extraction failed, continuing cycle")
			continue
		}

		for _, cand := range candidates {
			record := parser.Classify(cand, account)
			record.DiscoveredAt = time.Now().UTC()

			start := time.Now()
			inserted, err := m.store.InsertPost(ctx, record)
			metrics.RecordDBQuery("insert_post", time.Since(start), err)
			if err != nil {
				// The store is the novelty arbiter; without it the
				// cycle cannot tell new from seen. Abort.
				logging.Error().
					Err(err).
					Str("handle", account.Handle).
					Int64("post_id", record.PostID).
					Msg("Store unavailable, aborting cycle")
				metrics.RecordCycle(time.Since(cycleStart), true)
				return time.Time{}
			}
			if inserted {
				metrics.PostsDiscovered.WithLabelValues(account.Handle).Inc()
				newRecords = append(newRecords, record)
			}
		}
	}

	// Hand-off point: the re-arm clock starts here, before delivery work.
	handoff := time.Now()
	if len(newRecords) > 0 {
		logging.Info().
			Int("new_posts", len(newRecords)).
			Dur("cycle_duration", handoff.Sub(cycleStart)).
			Msg("Cycle discovered new posts")
		m.deliverer.Deliver(ctx, newRecords)
	}

	m.mu.Lock()
	m.lastCycle = handoff
	m.mu.Unlock()

	metrics.RecordCycle(time.Since(cycleStart), false)
	return handoff
}

// sleepJitter pauses a uniform random duration inside the configured jitter
// window between account visits. Returns false when interrupted by
// shutdown.
func (m *Manager) sleepJitter(ctx context.Context) bool {
	span := m.cfg.JitterMax - m.cfg.JitterMin
	wait := m.cfg.JitterMin
	if span > 0 {
		wait += time.Duration(rand.Int63n(int64(span))) //nolint:gosec // Jitter, not crypto
	}
	if wait <= 0 {
		return true
	}

	select {
	case <-time.After(wait):
		return true
	case <-m.stopCh():
		return false
	case <-ctx.Done():
		return false
	}
}

// extractAccount runs one bounded extraction and parses its hrefs.
func (m *Manager) extractAccount(ctx context.Context, account models.TrackedAccount) ([]parser.Candidate, error) {
	extractCtx, cancel := context.WithTimeout(ctx, m.cfg.ExtractTimeout)
	defer cancel()

	start := time.Now()
	hrefs, err := m.extractor.Extract(extractCtx, account)
	metrics.RecordExtraction(account.Handle, time.Since(start), extractionErrorType(err))
	if err != nil {
		return nil, err
	}

	return parser.ParseAll(hrefs), nil
}

func extractionErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, extractor.ErrTimelineNotFound):
		return "timeline_missing"
	default:
		return "browser"
	}
}
