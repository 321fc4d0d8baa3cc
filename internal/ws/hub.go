// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ws

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
)

// Hub manages websocket rooms keyed by chat room ID.
type Hub struct {
	mu    sync.RWMutex
	rooms map[int64]*room
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[int64]*room)}
}

// getRoom returns the existing room loop or starts a new one.
func (h *Hub) getRoom(id int64) *room {
	h.mu.RLock()
	r := h.rooms[id]
	h.mu.RUnlock()
	if r != nil {
		return r
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	// Double-check after acquiring the write lock.
	if r = h.rooms[id]; r == nil {
		r = newRoom(id)
		h.rooms[id] = r
	}
	return r
}

// Broadcast sends an event to every client in a room.
func (h *Hub) Broadcast(roomID int64, evt Event) {
	b, err := json.Marshal(evt)
	if err != nil {
		slog.Error("ws marshal failed", "error", err)
		return
	}
	h.getRoom(roomID).broadcast <- b
}

// Presence returns the usernames currently connected to a room, sorted.
// Multiple connections by the same user count once.
func (h *Hub) Presence(roomID int64) []string {
	h.mu.RLock()
	r := h.rooms[roomID]
	h.mu.RUnlock()
	if r == nil {
		return nil
	}

	reply := make(chan []string, 1)
	r.presence <- reply
	names := <-reply
	sort.Strings(names)
	return names
}

// room maintains active clients and fans out messages to them. All
// state is owned by the run loop; the channels are the only way in.
type room struct {
	id         int64
	clients    map[*Client]bool
	names      map[string]int // connection count per username
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	presence   chan chan []string
}

func newRoom(id int64) *room {
	r := &room{
		id:         id,
		clients:    make(map[*Client]bool),
		names:      make(map[string]int),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		presence:   make(chan chan []string),
	}
	go r.run()
	return r
}

// run is the room event loop; it serializes all room state changes.
func (r *room) run() {
	for {
		select {
		case c := <-r.register:
			r.clients[c] = true
			r.names[c.username]++
		case c := <-r.unregister:
			if _, ok := r.clients[c]; ok {
				delete(r.clients, c)
				close(c.send)
				if n := r.names[c.username]; n <= 1 {
					delete(r.names, c.username)
				} else {
					r.names[c.username] = n - 1
				}
			}
		case msg := <-r.broadcast:
			for c := range r.clients {
				select {
				case c.send <- msg:
				default:
					// slow client; drop
				}
			}
		case reply := <-r.presence:
			names := make([]string, 0, len(r.names))
			for name := range r.names {
				names = append(names, name)
			}
			reply <- names
		}
	}
}
