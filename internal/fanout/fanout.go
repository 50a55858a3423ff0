// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

// Package fanout delivers confirmed-new posts to every registered
// notification sink. Sinks fail independently: one sink rejecting a message
// never blocks the others, and a post is marked delivered once any sink
// accepts it.
package fanout

import (
	"context"
	"errors"
	"fmt"

	"github.com/pitch6767/twitter-tracker25/internal/logging"
	"github.com/pitch6767/twitter-tracker25/internal/metrics"
	"github.com/pitch6767/twitter-tracker25/internal/models"
)

// ErrSinkDisabled is returned by Send when a sink was disabled between the
// Enabled check and the delivery attempt. It keeps a no-op send from being
// counted as an acceptance.
var ErrSinkDisabled = errors.New("sink disabled")

// Sink is one notification destination.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Send delivers one alert. A nil return means the sink accepted the
	// message (a disabled sink also returns nil and reports not accepted
	// via Enabled).
	Send(ctx context.Context, event *models.AlertEvent) error

	// Enabled reports whether the sink is currently active. Disabled
	// sinks are skipped and do not count as acceptance.
	Enabled() bool
}

// Updater is implemented by sinks that can revise a previously sent alert.
// After a record's delivered flag is persisted, the fanout pushes an update
// through every Updater so dashboard viewers see the confirmation.
type Updater interface {
	SendUpdate(ctx context.Context, event *models.AlertEvent) error
}

// DeliveryStore is the subset of the post store the fanout needs.
type DeliveryStore interface {
	MarkDelivered(ctx context.Context, postID int64) error
}

// Fanout spreads each alert across all sinks.
type Fanout struct {
	sinks []Sink
	store DeliveryStore
}

// New creates a fanout over the given sinks. Sinks are attempted in the
// order given.
func New(store DeliveryStore, sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks, store: store}
}

// RenderMessage builds the human-readable alert line for a record.
func RenderMessage(record *models.PostRecord) string {
	if record.IsReshare {
		return fmt.Sprintf("📢 %s reshared %s: %s", record.AccountName, record.AuthorHandle, record.URL())
	}
	return fmt.Sprintf("📢 %s posted: %s", record.AccountName, record.URL())
}

// Deliver fans one batch of records out to every sink. Each record is
// attempted on each enabled sink; sink errors are logged and counted but
// never abort the batch or skip remaining sinks. A record whose message was
// accepted by at least one sink is marked delivered in the store; a failure
// to persist that flag is logged and the record stays eligible for a
// delivery retry marker on a later cycle.
func (f *Fanout) Deliver(ctx context.Context, records []*models.PostRecord) {
	for _, record := range records {
		event := models.NewAlertEvent(record, RenderMessage(record))
		accepted := 0

		for _, sink := range f.sinks {
			if !sink.Enabled() {
				continue
			}
			if err := sink.Send(ctx, event); err != nil {
				metrics.FanoutDeliveries.WithLabelValues(sink.Name(), "error").Inc()
				logging.Warn().
					Err(err).
					Str("sink", sink.Name()).
					Int64("post_id", record.PostID).
					Msg("Sink delivery failed")
				continue
			}
			metrics.FanoutDeliveries.WithLabelValues(sink.Name(), "ok").Inc()
			accepted++
		}

		if accepted == 0 {
			logging.Warn().
				Int64("post_id", record.PostID).
				Msg("No sink accepted alert, post stays undelivered")
			continue
		}

		if err := f.store.MarkDelivered(ctx, record.PostID); err != nil {
			logging.Error().
				Err(err).
				Int64("post_id", record.PostID).
				Msg("Failed to mark post delivered")
			continue
		}
		record.Delivered = true

		event.Delivered = true
		for _, sink := range f.sinks {
			u, ok := sink.(Updater)
			if !ok || !sink.Enabled() {
				continue
			}
			if err := u.SendUpdate(ctx, event); err != nil {
				logging.Warn().
					Err(err).
					Str("sink", sink.Name()).
					Int64("post_id", record.PostID).
					Msg("Alert update failed")
			}
		}
	}
}
