// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

package services

import (
	"context"
	"fmt"
)

// StartStopManager interface matches the tracker manager's lifecycle.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// TrackerService wraps the tracker manager as a supervised service.
//
// It adapts the Start/Stop lifecycle pattern to suture's Serve pattern:
//  1. Calls Start(ctx) to begin the discovery loop
//  2. Waits for context cancellation
//  3. Calls Stop() for graceful shutdown
//
// The manager handles its own goroutines internally via WaitGroup, so this
// wrapper simply orchestrates the lifecycle transitions.
type TrackerService struct {
	manager StartStopManager
	name    string
}

// NewTrackerService creates a new tracker service wrapper.
func NewTrackerService(manager StartStopManager) *TrackerService {
	return &TrackerService{
		manager: manager,
		name:    "tracker-manager",
	}
}

// Serve implements suture.Service.
//
// If Start() fails, the error is returned immediately, causing suture to
// restart the service according to its backoff policy.
func (s *TrackerService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("tracker manager start failed: %w", err)
	}

	<-ctx.Done()

	// Stop blocks until the discovery loop's goroutine completes.
	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("tracker manager stop failed: %w", err)
	}

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (s *TrackerService) String() string {
	return s.name
}
