// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ws implements the realtime chat channel. A hub owns one
// fan-out loop per room; clients attach over websocket connections.
package ws

import "time"

// Event types carried on the chat channel.
const (
	EventMessage = "message"
	EventJoined  = "joined"
	EventLeft    = "left"
)

// Event is the wire format for everything sent to room subscribers.
// Messages are stamped server-side; nothing client-supplied beyond the
// body is trusted.
type Event struct {
	Type     string    `json:"type"`
	RoomID   int64     `json:"room_id"`
	Username string    `json:"username,omitempty"`
	Name     string    `json:"name,omitempty"`
	Body     string    `json:"body,omitempty"`
	SentAt   time.Time `json:"sent_at"`
}

// inbound is what clients are allowed to send: a chat body only.
type inbound struct {
	Body string `json:"body"`
}
