// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const maxMessageSize = 1 << 16

// Client represents a single websocket connection to a room.
type Client struct {
	hub      *Hub
	room     *room
	conn     *websocket.Conn
	send     chan []byte
	username string
	name     string
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkSameOrigin,
}

// checkSameOrigin accepts requests without an Origin header (non-browser
// clients) and browser requests originating from this host.
func checkSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Serve upgrades the connection and attaches it to the room. The caller
// has already authenticated the user and verified room membership.
// name is the user's display name carried on message events.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, roomID int64, username, name string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "room_id", roomID, "error", err)
		return
	}

	rm := h.getRoom(roomID)
	client := &Client{hub: h, room: rm, conn: conn, send: make(chan []byte, 256), username: username, name: name}
	rm.register <- client

	h.Broadcast(roomID, Event{Type: EventJoined, RoomID: roomID, Username: username, Name: name, SentAt: time.Now().UTC()})

	go client.writePump()
	client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.room.unregister <- c
		_ = c.conn.Close()
		c.hub.Broadcast(c.room.id, Event{
			Type: EventLeft, RoomID: c.room.id, Username: c.username, Name: c.name, SentAt: time.Now().UTC(),
		})
	}()
	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			// Ignore malformed input; keep the connection alive.
			continue
		}
		body := strings.TrimSpace(in.Body)
		if body == "" {
			continue
		}

		c.hub.Broadcast(c.room.id, Event{
			Type:     EventMessage,
			RoomID:   c.room.id,
			Username: c.username,
			Name:     c.name,
			Body:     body,
			SentAt:   time.Now().UTC(),
		})
	}
}

func (c *Client) writePump() {
	defer func() { _ = c.conn.Close() }()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}
