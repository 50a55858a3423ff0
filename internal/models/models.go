// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

// Package models defines the shared data types passed between the discovery
// pipeline, the deduplication store, the fanout, and the API layer.
package models

import (
	"fmt"
	"time"
)

// TrackedAccount identifies one X/Twitter account to watch.
// Supplied by the account source; the discovery pipeline reads an immutable
// snapshot of these at the start of each cycle and never mutates them.
type TrackedAccount struct {
	// DisplayName is the account's profile name, e.g. "Donald J. Trump".
	// The timeline container on the profile page is labeled with this name.
	DisplayName string `json:"display_name" koanf:"name"`

	// Handle is the @-handle without the @, e.g. "realDonaldTrump".
	Handle string `json:"handle" koanf:"handle"`
}

// Valid reports whether the account has both fields set.
func (a TrackedAccount) Valid() bool {
	return a.DisplayName != "" && a.Handle != ""
}

// PostRecord is one discovered post. Created the moment a previously-unseen
// post id is confirmed by the store; append-only afterwards. Delivered flips
// false to true exactly once, after at least one notification sink accepts
// the rendered message.
type PostRecord struct {
	// PostID is the platform-assigned id, globally unique across accounts.
	PostID int64 `json:"post_id"`

	// AccountHandle is the handle of the tracked account whose timeline
	// surfaced the post.
	AccountHandle string `json:"account_handle"`

	// AccountName is the tracked account's display name, carried for
	// message rendering.
	AccountName string `json:"account_name,omitempty"`

	// AuthorHandle is the handle that actually authored the post. Differs
	// from AccountHandle when the tracked account reshared someone else's
	// content.
	AuthorHandle string `json:"author_handle"`

	// IsReshare is true when AuthorHandle != AccountHandle.
	IsReshare bool `json:"is_reshare"`

	// DiscoveredAt is when the record was created.
	DiscoveredAt time.Time `json:"discovered_at"`

	// Delivered is true once at least one sink accepted the message.
	Delivered bool `json:"delivered"`
}

// URL returns the canonical link to the post.
func (p *PostRecord) URL() string {
	return fmt.Sprintf("https://x.com/%s/status/%d", p.AuthorHandle, p.PostID)
}

// AlertEvent is the transient projection of a PostRecord broadcast to
// connected dashboard viewers. Not persisted.
type AlertEvent struct {
	PostID        int64     `json:"post_id"`
	AccountName   string    `json:"account_name"`
	AccountHandle string    `json:"account_handle"`
	AuthorHandle  string    `json:"author_handle"`
	IsReshare     bool      `json:"is_reshare"`
	URL           string    `json:"url"`
	Message       string    `json:"message"`
	Delivered     bool      `json:"delivered"`
	DiscoveredAt  time.Time `json:"discovered_at"`
}

// NewAlertEvent builds the broadcast projection of a record.
func NewAlertEvent(record *PostRecord, message string) *AlertEvent {
	return &AlertEvent{
		PostID:        record.PostID,
		AccountName:   record.AccountName,
		AccountHandle: record.AccountHandle,
		AuthorHandle:  record.AuthorHandle,
		IsReshare:     record.IsReshare,
		URL:           record.URL(),
		Message:       message,
		DiscoveredAt:  record.DiscoveredAt,
	}
}

// HandleStats is a per-handle post count for the stats endpoint.
type HandleStats struct {
	Handle string `json:"handle"`
	Posts  int64  `json:"posts"`
}

// StatsResponse is the payload of GET /api/v1/stats. It is the full-state
// snapshot viewers poll when the push channel is unavailable.
type StatsResponse struct {
	TotalPosts       int64         `json:"total_posts"`
	Reshares         int64         `json:"reshares"`
	TrackedAccounts  int           `json:"tracked_accounts"`
	ConnectedClients int           `json:"connected_clients"`
	LastCycleAt      *time.Time    `json:"last_cycle_at,omitempty"`
	PerHandle        []HandleStats `json:"per_handle,omitempty"`
}
