// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

package fanout

import (
	"context"

	"github.com/pitch6767/twitter-tracker25/internal/models"
	"github.com/pitch6767/twitter-tracker25/internal/websocket"
)

// BroadcastSink pushes alerts to connected dashboard viewers through the
// websocket hub. Hand-off to the hub's buffered queue counts as acceptance;
// per-client delivery is the hub's concern.
type BroadcastSink struct {
	hub *websocket.Hub
}

// NewBroadcastSink wraps a hub as a notification sink.
func NewBroadcastSink(hub *websocket.Hub) *BroadcastSink {
	return &BroadcastSink{hub: hub}
}

// Name returns the sink name.
func (s *BroadcastSink) Name() string {
	return "websocket"
}

// Enabled always reports true; a hub with zero clients still accepts.
func (s *BroadcastSink) Enabled() bool {
	return s.hub != nil
}

// Send queues the alert for broadcast.
func (s *BroadcastSink) Send(_ context.Context, event *models.AlertEvent) error {
	s.hub.BroadcastAlert(event)
	return nil
}

// SendUpdate queues a revision of an already-broadcast alert.
func (s *BroadcastSink) SendUpdate(_ context.Context, event *models.AlertEvent) error {
	s.hub.BroadcastAlertUpdate(event)
	return nil
}
