// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

package parser

import (
	"testing"

	"github.com/pitch6767/twitter-tracker25/internal/models"
)

func TestParseLink(t *testing.T) {
	tests := []struct {
		name       string
		href       string
		wantOK     bool
		wantAuthor string
		wantID     int64
	}{
		{
			name:       "canonical post link",
			href:       "https://x.com/elonmusk/status/1873456789012345678",
			wantOK:     true,
			wantAuthor: "elonmusk",
			wantID:     1873456789012345678,
		},
		{
			name:   "analytics sub-resource",
			href:   "https://x.com/elonmusk/status/1873456789012345678/analytics",
			wantOK: false,
		},
		{
			name:   "photo sub-resource",
			href:   "https://x.com/elonmusk/status/1873456789012345678/photo/1",
			wantOK: false,
		},
		{
			name:   "non-numeric id",
			href:   "https://x.com/elonmusk/status/abc",
			wantOK: false,
		},
		{
			name:   "id overflows int64",
			href:   "https://x.com/elonmusk/status/99999999999999999999999999",
			wantOK: false,
		},
		{
			name:   "wrong host",
			href:   "https://example.com/elonmusk/status/123",
			wantOK: false,
		},
		{
			name:   "profile link",
			href:   "https://x.com/elonmusk",
			wantOK: false,
		},
		{
			name:   "handle with invalid characters",
			href:   "https://x.com/elon-musk/status/123",
			wantOK: false,
		},
		{
			name:       "underscore handle",
			href:       "https://x.com/the_account_1/status/42",
			wantOK:     true,
			wantAuthor: "the_account_1",
			wantID:     42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLink(tt.href)
			if ok != tt.wantOK {
				t.Fatalf("ParseLink(%q) ok = %v, want %v", tt.href, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.AuthorHandle != tt.wantAuthor {
				t.Errorf("author = %q, want %q", got.AuthorHandle, tt.wantAuthor)
			}
			if got.PostID != tt.wantID {
				t.Errorf("id = %d, want %d", got.PostID, tt.wantID)
			}
		})
	}
}

func TestNormalizeHref(t *testing.T) {
	if got := NormalizeHref("/elonmusk/status/123"); got != "https://x.com/elonmusk/status/123" {
		t.Errorf("relative href not normalized: %q", got)
	}
	abs := "https://x.com/elonmusk/status/123"
	if got := NormalizeHref(abs); got != abs {
		t.Errorf("absolute href changed: %q", got)
	}
}

func TestParseAllDeduplicatesWithinBatch(t *testing.T) {
	hrefs := []string{
		"/elonmusk/status/100",
		"/elonmusk/status/100/analytics",
		"https://x.com/elonmusk/status/100",
		"/naval/status/200",
		"/elonmusk",
	}

	got := ParseAll(hrefs)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	if got[0].PostID != 100 || got[1].PostID != 200 {
		t.Errorf("first-sighting order not preserved: %+v", got)
	}
}

func TestClassifyReshare(t *testing.T) {
	account := models.TrackedAccount{DisplayName: "Elon Musk", Handle: "elonmusk"}

	tests := []struct {
		name        string
		author      string
		wantReshare bool
	}{
		{name: "own post", author: "elonmusk", wantReshare: false},
		{name: "other author", author: "naval", wantReshare: true},
		{name: "case differs is reshare", author: "ElonMusk", wantReshare: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Classify(Candidate{AuthorHandle: tt.author, PostID: 1}, account)
			if rec.IsReshare != tt.wantReshare {
				t.Errorf("IsReshare = %v, want %v", rec.IsReshare, tt.wantReshare)
			}
			if rec.AccountHandle != "elonmusk" || rec.AccountName != "Elon Musk" {
				t.Errorf("account fields not carried: %+v", rec)
			}
			if rec.AuthorHandle != tt.author {
				t.Errorf("author not carried: %+v", rec)
			}
		})
	}
}
