// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

package api

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	ws "github.com/pitch6767/twitter-tracker25/internal/websocket"
)

func dialWS(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpURL, "http") + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ws.Message {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	var msg ws.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func TestWebSocketHandshakeAck(t *testing.T) {
	srv := testServer(t, &fakeStore{}, nil)
	conn := dialWS(t, srv.URL)

	msg := readMessage(t, conn)
	if msg.Type != ws.MessageTypeConnection {
		t.Fatalf("expected first message %q, got %q", ws.MessageTypeConnection, msg.Type)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok || data["status"] != "connected" {
		t.Errorf("unexpected handshake payload: %+v", msg.Data)
	}
}

func TestWebSocketPingEcho(t *testing.T) {
	srv := testServer(t, &fakeStore{}, nil)
	conn := dialWS(t, srv.URL)

	// Drain the handshake ack first.
	if msg := readMessage(t, conn); msg.Type != ws.MessageTypeConnection {
		t.Fatalf("expected handshake ack, got %q", msg.Type)
	}

	if err := conn.WriteJSON(ws.Message{Type: ws.MessageTypePing}); err != nil {
		t.Fatalf("write ping failed: %v", err)
	}

	msg := readMessage(t, conn)
	if msg.Type != ws.MessageTypePong {
		t.Fatalf("expected pong, got %q", msg.Type)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected pong payload: %+v", msg.Data)
	}
	ts, _ := data["timestamp"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("pong timestamp not RFC3339: %q", ts)
	}

	// A ping carrying the client's own timestamp gets it echoed back.
	sent := "2026-08-31T08:00:00Z"
	err := conn.WriteJSON(ws.Message{
		Type: ws.MessageTypePing,
		Data: map[string]interface{}{"timestamp": sent},
	})
	if err != nil {
		t.Fatalf("write ping failed: %v", err)
	}
	msg = readMessage(t, conn)
	if msg.Type != ws.MessageTypePong {
		t.Fatalf("expected pong, got %q", msg.Type)
	}
	data, ok = msg.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected pong payload: %+v", msg.Data)
	}
	if got, _ := data["timestamp"].(string); got != sent {
		t.Errorf("pong timestamp = %q, want echoed %q", got, sent)
	}
}

func TestWebSocketMalformedMessageIgnored(t *testing.T) {
	srv := testServer(t, &fakeStore{}, nil)
	conn := dialWS(t, srv.URL)

	if msg := readMessage(t, conn); msg.Type != ws.MessageTypeConnection {
		t.Fatalf("expected handshake ack, got %q", msg.Type)
	}

	// An unknown message type is ignored; the connection stays usable.
	if err := conn.WriteJSON(ws.Message{Type: "bogus"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := conn.WriteJSON(ws.Message{Type: ws.MessageTypePing}); err != nil {
		t.Fatalf("write ping failed: %v", err)
	}

	msg := readMessage(t, conn)
	if msg.Type != ws.MessageTypePong {
		t.Errorf("connection should survive unknown message, got %q", msg.Type)
	}
}
