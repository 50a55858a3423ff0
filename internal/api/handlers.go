// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pitch6767/twitter-tracker25/internal/logging"
	"github.com/pitch6767/twitter-tracker25/internal/models"
	ws "github.com/pitch6767/twitter-tracker25/internal/websocket"
)

// StatsStore is the subset of the post store the handlers read.
type StatsStore interface {
	Stats(ctx context.Context) (total, reshares int64, perHandle []models.HandleStats, err error)
	RecentPosts(ctx context.Context, limit int) ([]models.PostRecord, error)
	Ping(ctx context.Context) error
}

// CycleInfo exposes the tracker's last hand-off timestamp.
type CycleInfo interface {
	LastCycleTime() time.Time
}

// Handler holds the API endpoint implementations and their dependencies.
type Handler struct {
	store    StatsStore
	wsHub    *ws.Hub
	cycles   CycleInfo
	accounts []models.TrackedAccount
	upgrader websocket.Upgrader
}

// NewHandler creates the API handler. cycles may be nil when the tracker is
// disabled; last_cycle_at is then omitted from stats.
func NewHandler(store StatsStore, hub *ws.Hub, cycles CycleInfo, accounts []models.TrackedAccount) *Handler {
	return &Handler{
		store:    store,
		wsHub:    hub,
		cycles:   cycles,
		accounts: accounts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is same-origin or CORS-gated upstream.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Health reports liveness and store reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	if err := h.store.Ping(ctx); err != nil {
		logging.Warn().Err(err).Msg("Health check: store unreachable")
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "store unreachable")
		return
	}

	rw.Success(map[string]string{"status": status})
}

// Stats serves the full-state snapshot viewers poll when the push channel
// is unavailable.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	total, reshares, perHandle, err := h.store.Stats(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("Stats query failed")
		rw.DatabaseError("failed to query stats")
		return
	}

	resp := models.StatsResponse{
		TotalPosts:       total,
		Reshares:         reshares,
		TrackedAccounts:  len(h.accounts),
		ConnectedClients: h.wsHub.GetClientCount(),
		PerHandle:        perHandle,
	}
	if h.cycles != nil {
		if last := h.cycles.LastCycleTime(); !last.IsZero() {
			resp.LastCycleAt = &last
		}
	}

	rw.Success(resp)
}

// Alerts serves the newest discovered posts for polling fallback,
// most recent first. ?limit=N caps the page, default 50.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			rw.BadRequest("limit must be a positive integer")
			return
		}
		limit = parsed
	}

	posts, err := h.store.RecentPosts(r.Context(), limit)
	if err != nil {
		logging.Error().Err(err).Msg("Recent posts query failed")
		rw.DatabaseError("failed to query alerts")
		return
	}

	rw.SuccessWithMeta(posts, &APIMeta{Count: len(posts)})
}

// WebSocket upgrades the connection and hands it to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		NewResponseWriter(w, r).Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket service unavailable")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
