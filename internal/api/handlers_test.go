// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/pitch6767/twitter-tracker25/internal/config"
	"github.com/pitch6767/twitter-tracker25/internal/logging"
	"github.com/pitch6767/twitter-tracker25/internal/models"
	ws "github.com/pitch6767/twitter-tracker25/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

type fakeStore struct {
	total     int64
	reshares  int64
	perHandle []models.HandleStats
	posts     []models.PostRecord
	statsErr  error
	postsErr  error
	pingErr   error

	lastLimit int
}

func (f *fakeStore) Stats(context.Context) (int64, int64, []models.HandleStats, error) {
	if f.statsErr != nil {
		return 0, 0, nil, f.statsErr
	}
	return f.total, f.reshares, f.perHandle, nil
}

func (f *fakeStore) RecentPosts(_ context.Context, limit int) ([]models.PostRecord, error) {
	f.lastLimit = limit
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	if limit < len(f.posts) {
		return f.posts[:limit], nil
	}
	return f.posts, nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

type fakeCycles struct{ last time.Time }

func (f *fakeCycles) LastCycleTime() time.Time { return f.last }

func testServer(t *testing.T, store *fakeStore, cycles CycleInfo) *httptest.Server {
	t.Helper()
	hub := ws.NewHub()
	go hub.Run()

	accounts := []models.TrackedAccount{{DisplayName: "Elon Musk", Handle: "elonmusk"}}
	handler := NewHandler(store, hub, cycles, accounts)
	router := NewRouter(handler, &config.ServerConfig{
		CORSOrigins:     []string{"*"},
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
	})

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv
}

func decodeResponse(t *testing.T, resp *http.Response) APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var envelope APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return envelope
}

func TestStatsEndpoint(t *testing.T) {
	lastCycle := time.Now().UTC().Truncate(time.Second)
	store := &fakeStore{
		total:     10,
		reshares:  3,
		perHandle: []models.HandleStats{{Handle: "elonmusk", Posts: 10}},
	}
	srv := testServer(t, store, &fakeCycles{last: lastCycle})

	resp, err := http.Get(srv.URL + "/api/v1/stats")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	envelope := decodeResponse(t, resp)
	if !envelope.Success {
		t.Fatal("expected success envelope")
	}

	raw, _ := json.Marshal(envelope.Data)
	var stats models.StatsResponse
	if err := json.Unmarshal(raw, &stats); err != nil {
		t.Fatalf("failed to decode stats payload: %v", err)
	}
	if stats.TotalPosts != 10 || stats.Reshares != 3 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.TrackedAccounts != 1 {
		t.Errorf("expected 1 tracked account, got %d", stats.TrackedAccounts)
	}
	if stats.LastCycleAt == nil || !stats.LastCycleAt.Equal(lastCycle) {
		t.Errorf("last cycle not carried: %v", stats.LastCycleAt)
	}
}

func TestStatsEndpointDatabaseError(t *testing.T) {
	store := &fakeStore{statsErr: errors.New("store offline")}
	srv := testServer(t, store, nil)

	resp, err := http.Get(srv.URL + "/api/v1/stats")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	envelope := decodeResponse(t, resp)
	if envelope.Success || envelope.Error == nil {
		t.Fatal("expected error envelope")
	}
	if envelope.Error.Code != ErrCodeDatabaseError {
		t.Errorf("expected %s, got %s", ErrCodeDatabaseError, envelope.Error.Code)
	}
}

func TestAlertsEndpoint(t *testing.T) {
	store := &fakeStore{posts: []models.PostRecord{
		{PostID: 2, AccountHandle: "elonmusk", AuthorHandle: "elonmusk"},
		{PostID: 1, AccountHandle: "elonmusk", AuthorHandle: "elonmusk"},
	}}
	srv := testServer(t, store, nil)

	resp, err := http.Get(srv.URL + "/api/v1/alerts?limit=2")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	envelope := decodeResponse(t, resp)
	if !envelope.Success {
		t.Fatal("expected success envelope")
	}
	if envelope.Meta == nil || envelope.Meta.Count != 2 {
		t.Errorf("expected meta count 2, got %+v", envelope.Meta)
	}
	if store.lastLimit != 2 {
		t.Errorf("expected limit 2 passed to store, got %d", store.lastLimit)
	}
}

func TestAlertsEndpointDefaultsLimit(t *testing.T) {
	store := &fakeStore{}
	srv := testServer(t, store, nil)

	resp, err := http.Get(srv.URL + "/api/v1/alerts")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if store.lastLimit != 50 {
		t.Errorf("expected default limit 50, got %d", store.lastLimit)
	}
}

func TestAlertsEndpointRejectsBadLimit(t *testing.T) {
	srv := testServer(t, &fakeStore{}, nil)

	for _, limit := range []string{"abc", "0", "-1"} {
		resp, err := http.Get(srv.URL + "/api/v1/alerts?limit=" + limit)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("limit=%s: expected 400, got %d", limit, resp.StatusCode)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, &fakeStore{}, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHealthEndpointStoreDown(t *testing.T) {
	srv := testServer(t, &fakeStore{pingErr: errors.New("no connection")}, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestRequestIDHeaderPropagated(t *testing.T) {
	srv := testServer(t, &fakeStore{}, nil)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/stats", nil)
	req.Header.Set("X-Request-ID", "test-request-id")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	envelope := decodeResponse(t, resp)
	if envelope.Meta == nil || envelope.Meta.RequestID != "test-request-id" {
		t.Errorf("request id not echoed in meta: %+v", envelope.Meta)
	}
}
