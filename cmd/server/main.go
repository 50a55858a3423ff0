// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

// Package main is the entry point for the Twitter Tracker server.
//
// Twitter Tracker watches a configured set of X/Twitter accounts for new
// posts and reshares, stores everything it has seen in DuckDB, and pushes
// alerts to Discord webhooks and connected WebSocket clients the moment a
// new post is discovered.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and config file via Koanf v2
//  2. Database: DuckDB deduplication store
//  3. WebSocket hub: realtime alert broadcast to connected clients
//  4. Fanout: Discord webhook and WebSocket sinks
//  5. Tracker manager: headless-browser discovery cycles (optional)
//  6. HTTP server: health, stats, alert history, metrics, /ws upgrade
//
// All long-running components run under a suture supervisor tree split
// into discovery, messaging, and api layers. A crash in the discovery
// layer restarts the tracker without taking the API down.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Example Usage
//
// Track two accounts and post alerts to Discord:
//
//	export TRACKER_ENABLED=true
//	export TRACKER_ACCOUNTS="Elon Musk:elonmusk,NASA:nasa"
//	export DISCORD_ENABLED=true
//	export DISCORD_WEBHOOK_URL=https://discord.com/api/webhooks/...
//	./twitter-tracker
//
// Dashboard-only mode against an existing database:
//
//	export TRACKER_ENABLED=false
//	export DUCKDB_PATH=/data/tracker.duckdb
//	./twitter-tracker
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops the discovery loop after the in-flight cycle step
//   - Drains WebSocket clients and closes their connections
//   - Waits for in-flight HTTP requests to complete (10s timeout)
//   - Closes the database connection
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pitch6767/twitter-tracker25/internal/api"
	"github.com/pitch6767/twitter-tracker25/internal/config"
	"github.com/pitch6767/twitter-tracker25/internal/database"
	"github.com/pitch6767/twitter-tracker25/internal/extractor"
	"github.com/pitch6767/twitter-tracker25/internal/fanout"
	"github.com/pitch6767/twitter-tracker25/internal/logging"
	"github.com/pitch6767/twitter-tracker25/internal/supervisor"
	"github.com/pitch6767/twitter-tracker25/internal/supervisor/services"
	"github.com/pitch6767/twitter-tracker25/internal/tracker"
	ws "github.com/pitch6767/twitter-tracker25/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Twitter Tracker with supervisor tree")

	if cfg.Tracker.Enabled {
		logging.Info().
			Int("accounts", len(cfg.Accounts)).
			Dur("cycle_interval", cfg.Tracker.CycleInterval).
			Str("db_path", cfg.Database.Path).
			Msg("Configuration loaded")
	} else {
		logging.Info().
			Bool("tracker_enabled", false).
			Str("db_path", cfg.Database.Path).
			Msg("Configuration loaded (dashboard-only mode)")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// WebSocket hub comes first so the fanout can broadcast through it
	wsHub := ws.NewHub()

	sinks := []fanout.Sink{fanout.NewBroadcastSink(wsHub)}
	if cfg.Discord.Enabled {
		sinks = append(sinks, fanout.NewDiscordSink(cfg.Discord))
		logging.Info().Int("rate_limit_ms", cfg.Discord.RateLimitMs).Msg("Discord sink registered")
	} else {
		logging.Info().Msg("Discord sink disabled (DISCORD_ENABLED=false)")
	}
	deliverer := fanout.New(db, sinks...)

	// Tracker manager drives the discovery cycles. Dashboard-only mode
	// skips it entirely and serves stored alerts from the database.
	var manager *tracker.Manager
	if cfg.Tracker.Enabled {
		ext := extractor.New(extractor.Config{
			Headless:    cfg.Tracker.Headless,
			BrowserPath: cfg.Tracker.BrowserPath,
			SettleWait:  cfg.Tracker.SettleWait,
		})
		manager = tracker.NewManager(&cfg.Tracker, cfg.Accounts, ext, db, deliverer)
		logging.Info().Int("accounts", len(cfg.Accounts)).Msg("Tracker manager created")
	} else {
		logging.Info().Msg("Tracker disabled - running in dashboard-only mode")
	}

	var cycles api.CycleInfo
	if manager != nil {
		cycles = manager
	}
	handler := api.NewHandler(db, wsHub, cycles, cfg.Accounts)
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	logging.Info().Msg("WebSocket hub added to supervisor tree")

	if manager != nil {
		tree.AddDiscoveryService(services.NewTrackerService(manager))
		logging.Info().Msg("Tracker manager added to supervisor tree")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
