// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

// Package config loads and validates application configuration.
//
// Configuration is layered via Koanf v2 (highest priority wins):
//  1. Environment variables
//  2. Config file (config.yaml)
//  3. Built-in defaults
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pitch6767/twitter-tracker25/internal/models"
)

// Config is the root configuration for the tracker server.
type Config struct {
	Accounts []models.TrackedAccount `koanf:"accounts"`
	Tracker  TrackerConfig           `koanf:"tracker"`
	Discord  DiscordConfig           `koanf:"discord"`
	Database DatabaseConfig          `koanf:"database"`
	Server   ServerConfig            `koanf:"server"`
	Logging  LoggingConfig           `koanf:"logging"`
}

// TrackerConfig controls the discovery cycle.
type TrackerConfig struct {
	// Enabled starts the discovery loop. Disable to run the dashboard API
	// against an existing database only.
	Enabled bool `koanf:"enabled"`

	// CycleInterval is the fixed re-arm delay between cycles, measured from
	// the moment a batch is handed to the fanout.
	CycleInterval time.Duration `koanf:"cycle_interval" validate:"min=10s"`

	// JitterMin/JitterMax bound the uniform random sleep between accounts.
	JitterMin time.Duration `koanf:"jitter_min"`
	JitterMax time.Duration `koanf:"jitter_max"`

	// SettleWait is how long the extractor waits after navigation for the
	// timeline to render.
	SettleWait time.Duration `koanf:"settle_wait"`

	// ExtractTimeout bounds one whole extraction (navigation + settle +
	// DOM read) for a single account.
	ExtractTimeout time.Duration `koanf:"extract_timeout" validate:"min=5s"`

	// Headless runs the browser without a display. Disable for local
	// debugging of the scrape.
	Headless bool `koanf:"headless"`

	// BrowserPath optionally pins the Chromium binary. Empty lets rod's
	// launcher resolve one.
	BrowserPath string `koanf:"browser_path"`
}

// DiscordConfig configures the chat notification sink.
type DiscordConfig struct {
	Enabled     bool   `koanf:"enabled"`
	WebhookURL  string `koanf:"webhook_url" validate:"omitempty,url"`
	RateLimitMs int    `koanf:"rate_limit_ms"`
}

// DatabaseConfig configures the DuckDB deduplication store.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use runtime.NumCPU()
}

// ServerConfig configures the HTTP/WebSocket server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would fail at runtime.
// Returns an error naming the first offending field.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Tracker.JitterMin < 0 || c.Tracker.JitterMax < c.Tracker.JitterMin {
		return fmt.Errorf("invalid configuration: tracker jitter range [%s, %s]",
			c.Tracker.JitterMin, c.Tracker.JitterMax)
	}

	for i, acct := range c.Accounts {
		if !acct.Valid() {
			return fmt.Errorf("invalid configuration: accounts[%d] needs both name and handle", i)
		}
	}

	if c.Discord.Enabled && c.Discord.WebhookURL == "" {
		return fmt.Errorf("invalid configuration: discord.enabled requires discord.webhook_url")
	}

	return nil
}

// Load is the conventional entry point; it delegates to LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
