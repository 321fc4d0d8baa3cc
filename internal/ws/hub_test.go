// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialRoom connects a test client to the hub through an httptest server.
func dialRoom(t *testing.T, srv *httptest.Server, roomID int64, username string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/ws?room=" + strconv.FormatInt(roomID, 10) + "&user=" + username

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func testServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roomID, _ := strconv.ParseInt(r.URL.Query().Get("room"), 10, 64)
		user := r.URL.Query().Get("user")
		hub.Serve(w, r, roomID, user, user+" Example")
	}))
	t.Cleanup(srv.Close)
	return srv
}

// readEvent reads events until one of the wanted type arrives.
func readEvent(t *testing.T, conn *websocket.Conn, wantType string) Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			t.Fatalf("unmarshal %q: %v", data, err)
		}
		if evt.Type == wantType {
			return evt
		}
	}
	t.Fatalf("no %q event received", wantType)
	return Event{}
}

func TestHub_MessageFanOut(t *testing.T) {
	hub := NewHub()
	srv := testServer(t, hub)

	alice := dialRoom(t, srv, 1, "alice")
	readEvent(t, alice, EventJoined) // alice's own join
	bob := dialRoom(t, srv, 1, "bob")
	readEvent(t, alice, EventJoined) // bob's join seen by alice

	if err := alice.WriteJSON(map[string]string{"body": "hello"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	for name, conn := range map[string]*websocket.Conn{"alice": alice, "bob": bob} {
		evt := readEvent(t, conn, EventMessage)
		if evt.Username != "alice" || evt.Name != "alice Example" || evt.Body != "hello" || evt.RoomID != 1 {
			t.Errorf("%s got %+v, want message hello from alice in room 1", name, evt)
		}
		if evt.SentAt.IsZero() {
			t.Errorf("%s got zero SentAt; messages must be stamped server-side", name)
		}
	}
}

func TestHub_RoomsAreIsolated(t *testing.T) {
	hub := NewHub()
	srv := testServer(t, hub)

	one := dialRoom(t, srv, 1, "alice")
	readEvent(t, one, EventJoined)
	two := dialRoom(t, srv, 2, "bob")
	readEvent(t, two, EventJoined)

	if err := one.WriteJSON(map[string]string{"body": "room one only"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readEvent(t, one, EventMessage)

	_ = two.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, data, err := two.ReadMessage(); err == nil {
		t.Errorf("room 2 client received cross-room data: %s", data)
	}
}

func TestHub_Presence(t *testing.T) {
	hub := NewHub()
	srv := testServer(t, hub)

	alice := dialRoom(t, srv, 7, "alice")
	readEvent(t, alice, EventJoined)
	// Second connection by the same user must not duplicate presence.
	alice2 := dialRoom(t, srv, 7, "alice")
	readEvent(t, alice2, EventJoined)
	bob := dialRoom(t, srv, 7, "bob")
	readEvent(t, bob, EventJoined)

	waitForPresence(t, hub, 7, []string{"alice", "bob"})

	_ = bob.Close()
	waitForPresence(t, hub, 7, []string{"alice"})
}

func waitForPresence(t *testing.T, hub *Hub, roomID int64, want []string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got := hub.Presence(roomID)
		if equalStrings(got, want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("Presence = %v, want %v", hub.Presence(roomID), want)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
