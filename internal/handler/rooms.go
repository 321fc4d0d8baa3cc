// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/blogo/internal/cache"
	"github.com/olegiv/blogo/internal/middleware"
	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/render"
	"github.com/olegiv/blogo/internal/service"
	"github.com/olegiv/blogo/internal/store"
	"github.com/olegiv/blogo/internal/ws"
)

// RoomHandler handles chat rooms: listing, creation, membership and the
// websocket endpoint.
type RoomHandler struct {
	db           *sql.DB
	queries      *store.Queries
	renderer     *render.Renderer
	eventService *service.EventService
	roles        *cache.RoleCache
	hub          *ws.Hub
	perPage      int
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(db *sql.DB, renderer *render.Renderer, roles *cache.RoleCache, hub *ws.Hub, perPage int) *RoomHandler {
	if perPage <= 0 {
		perPage = RoomsPerPage
	}
	return &RoomHandler{
		db:           db,
		queries:      store.New(db),
		renderer:     renderer,
		eventService: service.NewEventService(db),
		roles:        roles,
		hub:          hub,
		perPage:      perPage,
	}
}

// Rooms lists all chat rooms.
func (h *RoomHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	count, err := h.queries.CountRooms(r.Context())
	if err != nil {
		internalError(w, r, h.renderer, "counting rooms failed", "error", err)
		return
	}
	pagination := BuildPagination(pageParam(r), count, h.perPage, redirectRooms, r.URL.Query())
	rooms, err := h.queries.ListRooms(r.Context(), store.ListRoomsParams{
		Limit:  int64(h.perPage),
		Offset: pagination.Offset(),
	})
	if err != nil {
		internalError(w, r, h.renderer, "listing rooms failed", "error", err)
		return
	}

	memberCounts := make(map[int64]int64, len(rooms))
	membership := make(map[int64]bool, len(rooms))
	userID := middleware.GetUserID(r)
	for _, room := range rooms {
		n, cerr := h.queries.CountRoomMembers(r.Context(), room.ID)
		if cerr != nil {
			internalError(w, r, h.renderer, "counting room members failed", "error", cerr, "room_id", room.ID)
			return
		}
		memberCounts[room.ID] = n
		if userID > 0 {
			isMember, merr := h.queries.IsRoomMember(r.Context(), userID, room.ID)
			if merr != nil {
				internalError(w, r, h.renderer, "checking membership failed", "error", merr, "room_id", room.ID)
				return
			}
			membership[room.ID] = isMember
		}
	}

	renderPage(w, r, h.renderer, "rooms/index", render.TemplateData{
		Title: "Chat Rooms",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Rooms":        rooms,
			"MemberCounts": memberCounts,
			"Membership":   membership,
			"Pagination":   pagination,
		},
	})
}

// NewRoomForm renders the room creation page with a member picker.
func (h *RoomHandler) NewRoomForm(w http.ResponseWriter, r *http.Request) {
	users, err := h.queries.ListAllActiveUsers(r.Context())
	if err != nil {
		internalError(w, r, h.renderer, "listing users failed", "error", err)
		return
	}
	renderPage(w, r, h.renderer, "rooms/new", render.TemplateData{
		Title: "New Room",
		User:  middleware.GetUser(r),
		Data:  map[string]any{"Users": users},
	})
}

// CreateRoom creates a room with the selected members. The author is
// always a member, whether or not they selected themselves.
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if !parseFormOrRedirect(w, r, h.renderer, "/rooms/new") {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		flashError(w, r, h.renderer, "/rooms/new", "Room name is required")
		return
	}
	if len(name) > MaxRoomNameLen {
		flashError(w, r, h.renderer, "/rooms/new", "Room name is too long")
		return
	}

	// Malformed, unknown and soft-deleted member selections are form
	// noise, not server faults; they are dropped here.
	var memberIDs []int64
	for _, raw := range r.Form["members"] {
		id, perr := parseInt64(raw)
		if perr != nil || id == user.ID {
			continue
		}
		member, merr := h.queries.GetUserByID(r.Context(), id)
		if errors.Is(merr, sql.ErrNoRows) {
			continue
		}
		if merr != nil {
			internalError(w, r, h.renderer, "resolving room member failed", "error", merr, "member_id", id)
			return
		}
		if member.IsDeleted() {
			continue
		}
		memberIDs = append(memberIDs, id)
	}

	// Room and memberships commit together; a room is never observable
	// without its author inside it.
	room, err := store.CreateRoomWithMembers(r.Context(), h.db, store.CreateRoomWithMembersParams{
		Name:      name,
		AuthorID:  user.ID,
		MemberIDs: memberIDs,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		internalError(w, r, h.renderer, "creating room failed", "error", err)
		return
	}

	_ = h.eventService.LogRoomEvent(r.Context(), model.EventLevelInfo,
		"Room created", &user.ID, middleware.GetClientIP(r),
		map[string]any{"room_id": room.ID, "name": room.Name, "members": len(memberIDs) + 1})
	flashSuccess(w, r, h.renderer, roomURL(room.ID), "Room created")
}

// ShowRoom renders a room page. Members get the chat; non-members get
// the join prompt. Online and offline member lists are derived from
// last_seen at render time.
func (h *RoomHandler) ShowRoom(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	room, ok := requireEntity(w, r, h.renderer, "room", id,
		func(id int64) (store.Room, error) { return h.queries.GetRoomByID(r.Context(), id) })
	if !ok {
		return
	}

	members, err := h.queries.ListRoomMembers(r.Context(), room.ID)
	if err != nil {
		internalError(w, r, h.renderer, "listing room members failed", "error", err, "room_id", room.ID)
		return
	}
	online, offline := partitionMembers(members)

	user := middleware.GetUser(r)
	isMember := false
	if user != nil {
		isMember, err = h.queries.IsRoomMember(r.Context(), user.ID, room.ID)
		if err != nil {
			internalError(w, r, h.renderer, "checking membership failed", "error", err, "room_id", room.ID)
			return
		}
	}

	renderPage(w, r, h.renderer, "rooms/room", render.TemplateData{
		Title: room.Name,
		User:  user,
		Data: map[string]any{
			"Room":      room,
			"Members":   members,
			"Online":    online,
			"Offline":   offline,
			"Connected": h.hub.Presence(room.ID),
			"IsMember":  isMember,
			"CanDelete": h.canDeleteRoom(r, &room),
		},
	})
}

// partitionMembers splits a member list by presence at call time.
func partitionMembers(members []store.RoomMember) (online, offline []store.RoomMember) {
	for _, m := range members {
		if m.User.IsOnline() {
			online = append(online, m)
		} else {
			offline = append(offline, m)
		}
	}
	return online, offline
}

// canDeleteRoom reports whether the requester may delete the room:
// the author, or an administrator.
func (h *RoomHandler) canDeleteRoom(r *http.Request, room *store.Room) bool {
	user := middleware.GetUser(r)
	if user == nil {
		return false
	}
	if room.IsAuthor(user.ID) {
		return true
	}
	return middleware.IsAdmin(r, h.roles)
}

// JoinRoom adds the logged-in user to a room. Joining twice reports
// the existing membership.
func (h *RoomHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	room, ok := requireEntity(w, r, h.renderer, "room", id,
		func(id int64) (store.Room, error) { return h.queries.GetRoomByID(r.Context(), id) })
	if !ok {
		return
	}

	isMember, err := h.queries.IsRoomMember(r.Context(), user.ID, room.ID)
	if err != nil {
		internalError(w, r, h.renderer, "checking membership failed", "error", err, "room_id", room.ID)
		return
	}
	if isMember {
		flashInfo(w, r, h.renderer, roomURL(room.ID), "You are already a member of this room")
		return
	}

	if err := h.queries.AddRoomMember(r.Context(), store.AddRoomMemberParams{
		UserID:   user.ID,
		RoomID:   room.ID,
		JoinedAt: time.Now().UTC(),
	}); err != nil {
		internalError(w, r, h.renderer, "joining room failed", "error", err, "room_id", room.ID)
		return
	}

	_ = h.eventService.LogRoomEvent(r.Context(), model.EventLevelInfo,
		"Room joined", &user.ID, middleware.GetClientIP(r), map[string]any{"room_id": room.ID})
	flashSuccess(w, r, h.renderer, roomURL(room.ID), "Welcome to "+room.Name)
}

// LeaveRoom removes the logged-in user from a room. Leaving a room one
// is not in reports that state.
func (h *RoomHandler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	room, ok := requireEntity(w, r, h.renderer, "room", id,
		func(id int64) (store.Room, error) { return h.queries.GetRoomByID(r.Context(), id) })
	if !ok {
		return
	}

	removed, err := h.queries.RemoveRoomMember(r.Context(), user.ID, room.ID)
	if err != nil {
		internalError(w, r, h.renderer, "leaving room failed", "error", err, "room_id", room.ID)
		return
	}
	if !removed {
		flashInfo(w, r, h.renderer, redirectRooms, "You are not a member of this room")
		return
	}

	_ = h.eventService.LogRoomEvent(r.Context(), model.EventLevelInfo,
		"Room left", &user.ID, middleware.GetClientIP(r), map[string]any{"room_id": room.ID})
	flashSuccess(w, r, h.renderer, redirectRooms, "You have left "+room.Name)
}

// DeleteRoom removes a room. Only the author or an administrator may
// delete; memberships cascade with the row.
func (h *RoomHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	room, ok := requireEntity(w, r, h.renderer, "room", id,
		func(id int64) (store.Room, error) { return h.queries.GetRoomByID(r.Context(), id) })
	if !ok {
		return
	}
	if !h.canDeleteRoom(r, &room) {
		forbidden(w, r, h.renderer)
		return
	}

	if err := h.queries.DeleteRoom(r.Context(), room.ID); err != nil {
		internalError(w, r, h.renderer, "deleting room failed", "error", err, "room_id", room.ID)
		return
	}

	_ = h.eventService.LogRoomEvent(r.Context(), model.EventLevelInfo,
		"Room deleted", middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"room_id": room.ID, "name": room.Name})
	flashSuccess(w, r, h.renderer, redirectRooms, "The room has been deleted")
}

// ServeWS upgrades a member's connection to the room's chat channel.
// Non-members get 403 before any upgrade happens.
func (h *RoomHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if _, err := h.queries.GetRoomByID(r.Context(), id); err != nil {
		http.NotFound(w, r)
		return
	}

	isMember, err := h.queries.IsRoomMember(r.Context(), user.ID, id)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !isMember {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	h.hub.Serve(w, r, id, user.Username, user.FullName())
}

// roomURL returns the canonical path of a room.
func roomURL(id int64) string {
	return "/rooms/" + formatID(id)
}
