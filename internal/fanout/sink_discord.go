// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

package fanout

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pitch6767/twitter-tracker25/internal/config"
	"github.com/pitch6767/twitter-tracker25/internal/logging"
	"github.com/pitch6767/twitter-tracker25/internal/models"
)

// DiscordSink sends alerts to a Discord channel via webhook.
type DiscordSink struct {
	webhookURL string
	client     *http.Client
	enabled    bool
	mu         sync.RWMutex

	// Rate limiting
	lastSent  time.Time
	rateLimit time.Duration

	// Webhook outages trip the breaker so a dead endpoint does not delay
	// every record in a batch by the full HTTP timeout.
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewDiscordSink creates a Discord webhook sink.
func NewDiscordSink(cfg config.DiscordConfig) *DiscordSink {
	rateLimit := time.Duration(cfg.RateLimitMs) * time.Millisecond
	if rateLimit == 0 {
		rateLimit = 1 * time.Second // Default 1 second rate limit
	}

	s := &DiscordSink{
		webhookURL: cfg.WebhookURL,
		enabled:    cfg.Enabled,
		rateLimit:  rateLimit,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	s.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "discord-webhook",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Discord circuit breaker state change")
		},
	})

	return s
}

// Name returns the sink name.
func (s *DiscordSink) Name() string {
	return "discord"
}

// Enabled reports whether the sink has a webhook configured and is active.
func (s *DiscordSink) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled && s.webhookURL != ""
}

// SetEnabled enables or disables the sink.
func (s *DiscordSink) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Send delivers one alert message to the webhook.
func (s *DiscordSink) Send(ctx context.Context, event *models.AlertEvent) error {
	s.mu.RLock()
	if !s.enabled || s.webhookURL == "" {
		s.mu.RUnlock()
		return ErrSinkDisabled
	}
	webhookURL := s.webhookURL
	rateLimit := s.rateLimit
	lastSent := s.lastSent
	s.mu.RUnlock()

	// Rate limiting with context cancellation support
	if time.Since(lastSent) < rateLimit {
		waitTime := rateLimit - time.Since(lastSent)
		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.post(ctx, webhookURL, event.Message)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lastSent = time.Now()
	s.mu.Unlock()

	return nil
}

func (s *DiscordSink) post(ctx context.Context, webhookURL, content string) error {
	payload := discordWebhookPayload{Content: content}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create Discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}

	return nil
}

type discordWebhookPayload struct {
	Content string `json:"content,omitempty"`
}
