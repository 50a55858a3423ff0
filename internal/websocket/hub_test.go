// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

package websocket

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/pitch6767/twitter-tracker25/internal/logging"
	"github.com/pitch6767/twitter-tracker25/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "disabled",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub creates and starts a new hub for testing
func setupHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	time.Sleep(10 * time.Millisecond)
	return hub
}

// createTestClient creates a client without a real connection. The handshake
// ack is queued by NewClient exactly as it is for real connections.
func createTestClient(hub *Hub) *Client {
	return NewClient(hub, nil)
}

// registerClient registers a client and waits for registration to complete
func registerClient(hub *Hub, client *Client) {
	hub.Register <- client
	time.Sleep(20 * time.Millisecond)
}

func createTestAlert(postID int64) *models.AlertEvent {
	record := &models.PostRecord{
		PostID:        postID,
		AccountHandle: "elonmusk",
		AccountName:   "Elon Musk",
		AuthorHandle:  "elonmusk",
		DiscoveredAt:  time.Now().UTC(),
	}
	return models.NewAlertEvent(record, "📢 Elon Musk posted: "+record.URL())
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}

	checks := []struct {
		name   string
		check  bool
		errMsg string
	}{
		{"clients map", hub.clients != nil, "clients map not initialized"},
		{"broadcast channel", hub.broadcast != nil, "broadcast channel not initialized"},
		{"Register channel", hub.Register != nil, "Register channel not initialized"},
		{"Unregister channel", hub.Unregister != nil, "Unregister channel not initialized"},
		{"empty clients", len(hub.clients) == 0, "clients map should be empty"},
	}

	for _, c := range checks {
		if !c.check {
			t.Error(c.errMsg)
		}
	}
}

func TestHub_GetClientCount(t *testing.T) {
	hub := NewHub()

	if hub.GetClientCount() != 0 {
		t.Errorf("Expected 0 clients initially, got %d", hub.GetClientCount())
	}

	for i := 0; i < 5; i++ {
		hub.clients[createTestClient(hub)] = true
	}

	if hub.GetClientCount() != 5 {
		t.Errorf("Expected 5 clients, got %d", hub.GetClientCount())
	}
}

func TestHub_ConnectionAckPrecedesAlerts(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	hub.BroadcastAlert(createTestAlert(1))
	time.Sleep(20 * time.Millisecond)

	// First message out of the send queue must be the handshake ack, even
	// though the alert was broadcast immediately after registration.
	first := <-client.send
	if first.Type != MessageTypeConnection {
		t.Fatalf("expected first message type %q, got %q", MessageTypeConnection, first.Type)
	}
	data, ok := first.Data.(ConnectionData)
	if !ok || data.Status != "connected" {
		t.Errorf("unexpected handshake payload: %+v", first.Data)
	}

	second := <-client.send
	if second.Type != MessageTypeNameAlert {
		t.Errorf("expected second message type %q, got %q", MessageTypeNameAlert, second.Type)
	}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := setupHub(t)

	clients := make([]*Client, 3)
	for i := range clients {
		clients[i] = createTestClient(hub)
		registerClient(hub, clients[i])
		<-clients[i].send // drain handshake ack
	}

	hub.BroadcastAlert(createTestAlert(42))
	time.Sleep(20 * time.Millisecond)

	for i, client := range clients {
		select {
		case msg := <-client.send:
			if msg.Type != MessageTypeNameAlert {
				t.Errorf("client %d: expected %q, got %q", i, MessageTypeNameAlert, msg.Type)
			}
			alert, ok := msg.Data.(*models.AlertEvent)
			if !ok {
				t.Fatalf("client %d: unexpected payload type %T", i, msg.Data)
			}
			if alert.PostID != 42 {
				t.Errorf("client %d: expected post id 42, got %d", i, alert.PostID)
			}
		default:
			t.Errorf("client %d: no alert received", i)
		}
	}
}

func TestHub_BroadcastAlertUpdate(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)
	<-client.send // drain handshake ack

	hub.BroadcastAlertUpdate(createTestAlert(7))
	time.Sleep(20 * time.Millisecond)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeNameAlertUpdate {
			t.Errorf("expected %q, got %q", MessageTypeNameAlertUpdate, msg.Type)
		}
	default:
		t.Error("no alert update received")
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	// Fill the client's send buffer completely (it already holds the
	// handshake ack).
	for i := 0; i < cap(client.send)-1; i++ {
		client.send <- Message{Type: MessageTypePong}
	}

	hub.BroadcastAlert(createTestAlert(99))
	time.Sleep(20 * time.Millisecond)

	if hub.GetClientCount() != 0 {
		t.Errorf("slow client should be dropped, still have %d clients", hub.GetClientCount())
	}
}

func TestHub_SlowClientDropSafeDuringPing(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	// Fill the client's send buffer completely (it already holds the
	// handshake ack).
	for i := 0; i < cap(client.send)-1; i++ {
		client.send <- Message{Type: MessageTypePong}
	}

	// A stuck viewer can still be echoing pings from its read loop while
	// the hub drops it for the full buffer. The enqueue must not panic on
	// the concurrently closed channel; a panic here takes the process down.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			client.queue(newPongMessage(""))
		}
	}()

	hub.BroadcastAlert(createTestAlert(99))
	<-done
	time.Sleep(20 * time.Millisecond)

	if hub.GetClientCount() != 0 {
		t.Errorf("slow client should be dropped, still have %d clients", hub.GetClientCount())
	}
	if client.queue(Message{Type: MessageTypePong}) {
		t.Error("queue should refuse messages after the client is closed")
	}
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)
	<-client.send // drain handshake ack

	hub.Unregister <- client
	time.Sleep(20 * time.Millisecond)

	if hub.GetClientCount() != 0 {
		t.Errorf("expected 0 clients after unregister, got %d", hub.GetClientCount())
	}

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected send channel closed after unregister")
		}
	default:
		t.Error("send channel should be closed, not empty")
	}
}

func TestHub_RunWithContextShutdown(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- hub.RunWithContext(ctx)
	}()
	time.Sleep(10 * time.Millisecond)

	client := createTestClient(hub)
	registerClient(hub, client)

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not shut down within 1s")
	}

	if hub.GetClientCount() != 0 {
		t.Errorf("expected all clients closed on shutdown, got %d", hub.GetClientCount())
	}
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := setupHub(t)
	// Must not block or panic with zero clients connected.
	hub.BroadcastAlert(createTestAlert(1))
	hub.BroadcastAlertUpdate(createTestAlert(2))
	hub.BroadcastJSON(MessageTypeCAAlert, map[string]interface{}{"address": "test"})
	time.Sleep(10 * time.Millisecond)
}

func TestMarshalMessage(t *testing.T) {
	msg := Message{
		Type: MessageTypeConnection,
		Data: ConnectionData{Status: "connected"},
	}
	raw, err := MarshalMessage(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"type":"connection","data":{"status":"connected"}}`
	if string(raw) != want {
		t.Errorf("wire format mismatch:\n got %s\nwant %s", raw, want)
	}
}

func TestNewPongMessageCarriesTimestamp(t *testing.T) {
	msg := newPongMessage("")
	if msg.Type != MessageTypePong {
		t.Fatalf("expected type %q, got %q", MessageTypePong, msg.Type)
	}
	data, ok := msg.Data.(PongData)
	if !ok {
		t.Fatalf("unexpected payload type %T", msg.Data)
	}
	if _, err := time.Parse(time.RFC3339, data.Timestamp); err != nil {
		t.Errorf("timestamp not RFC3339: %q", data.Timestamp)
	}
}

func TestNewPongMessageEchoesClientTimestamp(t *testing.T) {
	ping := Message{
		Type: MessageTypePing,
		Data: map[string]interface{}{"timestamp": "2026-08-31T12:00:00Z"},
	}
	msg := newPongMessage(pingTimestamp(ping))
	data, ok := msg.Data.(PongData)
	if !ok {
		t.Fatalf("unexpected payload type %T", msg.Data)
	}
	if data.Timestamp != "2026-08-31T12:00:00Z" {
		t.Errorf("pong should echo the ping's timestamp, got %q", data.Timestamp)
	}
}
