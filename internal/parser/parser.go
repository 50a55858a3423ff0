// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

// Package parser turns raw timeline hrefs into classified post candidates.
// Pure functions, no I/O; the extractor feeds it whatever anchors the
// timeline container held and the parser decides what is actually a post.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pitch6767/twitter-tracker25/internal/models"
)

// statusLinkRe matches a canonical post link. The trailing anchor rejects
// sub-resources such as /analytics and /photo/1 that share the status
// prefix but are not posts.
var statusLinkRe = regexp.MustCompile(`^https://x\.com/([A-Za-z0-9_]+)/status/(\d+)$`)

// Candidate is one parsed post link before store confirmation.
type Candidate struct {
	// AuthorHandle is the handle embedded in the link path, i.e. who
	// authored the post.
	AuthorHandle string

	// PostID is the numeric status id from the link.
	PostID int64
}

// NormalizeHref makes a timeline href absolute. The timeline DOM uses
// relative hrefs like "/elonmusk/status/123"; absolute ones pass through
// unchanged.
func NormalizeHref(href string) string {
	if strings.HasPrefix(href, "/") {
		return "https://x.com" + href
	}
	return href
}

// ParseLink parses one normalized href. Returns false for anything that is
// not a canonical post link: wrong host, sub-resource suffixes, or an id
// that does not fit in int64.
func ParseLink(href string) (Candidate, bool) {
	m := statusLinkRe.FindStringSubmatch(href)
	if m == nil {
		return Candidate{}, false
	}
	id, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Candidate{}, false
	}
	return Candidate{AuthorHandle: m[1], PostID: id}, true
}

// ParseAll normalizes and parses a batch of hrefs, dropping anything that
// is not a post link and collapsing repeat sightings of the same id within
// the batch. Order of first sighting is preserved.
func ParseAll(hrefs []string) []Candidate {
	seen := make(map[int64]struct{}, len(hrefs))
	out := make([]Candidate, 0, len(hrefs))
	for _, href := range hrefs {
		cand, ok := ParseLink(NormalizeHref(href))
		if !ok {
			continue
		}
		if _, dup := seen[cand.PostID]; dup {
			continue
		}
		seen[cand.PostID] = struct{}{}
		out = append(out, cand)
	}
	return out
}

// Classify builds the store record for a candidate surfaced on a tracked
// account's timeline. A post whose author handle differs from the tracked
// handle is a reshare; the comparison is byte-exact, no case folding.
func Classify(cand Candidate, account models.TrackedAccount) *models.PostRecord {
	return &models.PostRecord{
		PostID:        cand.PostID,
		AccountHandle: account.Handle,
		AccountName:   account.DisplayName,
		AuthorHandle:  cand.AuthorHandle,
		IsReshare:     cand.AuthorHandle != account.Handle,
	}
}
