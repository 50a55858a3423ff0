// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

// Package extractor drives a headless Chromium instance to pull raw post
// hrefs from an account's public X/Twitter profile page. Each extraction
// runs in its own browser process so a wedged or detected session cannot
// leak state into the next account's visit.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/pitch6767/twitter-tracker25/internal/logging"
	"github.com/pitch6767/twitter-tracker25/internal/models"
)

// ErrTimelineNotFound is returned when the profile page loaded but the
// timeline container was absent. Usually a login wall, a suspended account,
// or a display name that no longer matches the configured one.
var ErrTimelineNotFound = errors.New("timeline container not found")

const domStableDur = 500 * time.Millisecond

// blockedResourceTypes lists network resource types the extractor skips.
// The timeline anchors are plain DOM; media only slows the visit down.
var blockedResourceTypes = []proto.NetworkResourceType{
	proto.NetworkResourceTypeImage,
	proto.NetworkResourceTypeFont,
	proto.NetworkResourceTypeMedia,
}

// Config controls the browser sessions.
type Config struct {
	// Headless runs Chromium without a display.
	Headless bool

	// BrowserPath optionally pins the Chromium binary. Empty lets the
	// launcher resolve one.
	BrowserPath string

	// SettleWait is how long the page may keep mutating after navigation
	// before the DOM is read.
	SettleWait time.Duration
}

// Extractor launches one browser process per extraction.
type Extractor struct {
	cfg Config
}

// New creates an extractor. No browser is started until Extract is called.
func New(cfg Config) *Extractor {
	if cfg.SettleWait <= 0 {
		cfg.SettleWait = 5 * time.Second
	}
	return &Extractor{cfg: cfg}
}

// Extract visits the account's profile page and returns every href found
// inside its timeline container, unfiltered and possibly relative. The
// caller's context bounds the whole visit; on timeout the browser process
// is torn down with it.
func (e *Extractor) Extract(ctx context.Context, account models.TrackedAccount) ([]string, error) {
	l := launcher.New().
		Headless(e.cfg.Headless).
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-dev-shm-usage")
	if e.cfg.BrowserPath != "" {
		l = l.Bin(e.cfg.BrowserPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch headless browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to headless browser: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logging.Debug().Err(err).Str("handle", account.Handle).Msg("Browser close failed")
		}
		l.Cleanup()
	}()

	hrefs, err := e.extractFromPage(ctx, browser, account)
	if err != nil {
		return nil, err
	}
	return hrefs, nil
}

func (e *Extractor) extractFromPage(ctx context.Context, browser *rod.Browser, account models.TrackedAccount) ([]string, error) {
	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("create tab: %w", err)
	}
	defer func() { _ = page.Close() }()
	page = page.Context(ctx)

	router := page.HijackRequests()
	for _, rt := range blockedResourceTypes {
		_ = router.Add("*", rt, func(h *rod.Hijack) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		})
	}
	go router.Run()
	defer func() { _ = router.Stop() }()

	profileURL := "https://x.com/" + account.Handle
	if err := page.Navigate(profileURL); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", profileURL, err)
	}

	// The timeline is rendered client-side well after load. Give the page a
	// fixed settle window, then wait for the DOM to stop mutating.
	select {
	case <-time.After(e.cfg.SettleWait):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	_ = page.WaitStable(domStableDur)

	// Non-waiting lookup: if the container is not there now it is not
	// coming, and waiting would just burn the timeout.
	containers, err := page.Elements(TimelineSelector(account.DisplayName))
	if err != nil {
		return nil, fmt.Errorf("query timeline container: %w", err)
	}
	if len(containers) == 0 {
		return nil, ErrTimelineNotFound
	}

	anchors, err := containers.First().Elements("a")
	if err != nil {
		return nil, fmt.Errorf("query timeline anchors: %w", err)
	}

	hrefs := make([]string, 0, len(anchors))
	for _, a := range anchors {
		href, err := a.Attribute("href")
		if err != nil || href == nil || *href == "" {
			continue
		}
		hrefs = append(hrefs, *href)
	}

	logging.Debug().
		Str("handle", account.Handle).
		Int("anchors", len(hrefs)).
		Msg("Timeline extracted")

	return hrefs, nil
}

// TimelineSelector builds the CSS selector for the account's timeline
// container. X labels the region with the profile display name, so the
// selector has to carry it verbatim; quotes and backslashes in the name
// are escaped for the attribute string.
func TimelineSelector(displayName string) string {
	escaped := make([]rune, 0, len(displayName))
	for _, r := range displayName {
		if r == '"' || r == '\\' {
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, r)
	}
	return fmt.Sprintf(`div[aria-label="Timeline: %s’s posts"]`, string(escaped))
}
