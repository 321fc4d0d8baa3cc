// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/store"
	"github.com/olegiv/blogo/internal/ws"
)

func createRoomVia(t *testing.T, app *testApp, name string, memberIDs ...int64) store.Room {
	t.Helper()
	form := url.Values{"name": {name}}
	for _, id := range memberIDs {
		form.Add("members", formatID(id))
	}
	body := app.postForm(t, "/rooms/new", form)
	if !strings.Contains(body, "Room created") {
		t.Fatalf("creating room failed: %s", body)
	}
	rooms, err := app.queries.ListRooms(context.Background(), store.ListRoomsParams{Limit: 1, Offset: 0})
	if err != nil || len(rooms) == 0 {
		t.Fatalf("room not stored: %v", err)
	}
	return rooms[0]
}

func TestCreateRoom_AuthorAndMembers(t *testing.T) {
	app := newTestApp(t)
	owner := app.createUser(t, "owner", model.RoleUser)
	guest := app.createUser(t, "guest", model.RoleUser)
	app.login(t, "owner")

	// The author is a member even without selecting themselves.
	room := createRoomVia(t, app, "lounge", guest.ID)

	for _, u := range []store.User{owner, guest} {
		isMember, err := app.queries.IsRoomMember(context.Background(), u.ID, room.ID)
		if err != nil || !isMember {
			t.Errorf("%s membership = %v, %v; want member", u.Username, isMember, err)
		}
	}
	n, err := app.queries.CountRoomMembers(context.Background(), room.ID)
	if err != nil || n != 2 {
		t.Errorf("member count = %d, %v; want 2", n, err)
	}
}

func TestCreateRoom_BogusMemberSelections(t *testing.T) {
	app := newTestApp(t)
	owner := app.createUser(t, "owner", model.RoleUser)
	ghost := app.createUser(t, "ghost", model.RoleUser)
	if err := app.queries.SoftDeleteUser(context.Background(), ghost.ID, time.Now().UTC()); err != nil {
		t.Fatalf("soft deleting user: %v", err)
	}
	app.login(t, "owner")

	// Unknown ids, garbage values and deactivated accounts in the member
	// selection are dropped; the room still comes out with its author.
	form := url.Values{"name": {"solo"}}
	form.Add("members", "99999")
	form.Add("members", "not-a-number")
	form.Add("members", formatID(ghost.ID))
	body := app.postForm(t, "/rooms/new", form)
	if !strings.Contains(body, "Room created") {
		t.Fatalf("room creation rejected: %s", body)
	}

	rooms, err := app.queries.ListRooms(context.Background(), store.ListRoomsParams{Limit: 1, Offset: 0})
	if err != nil || len(rooms) == 0 {
		t.Fatalf("room not stored: %v", err)
	}
	n, err := app.queries.CountRoomMembers(context.Background(), rooms[0].ID)
	if err != nil || n != 1 {
		t.Errorf("member count = %d, %v; want 1", n, err)
	}
	isMember, err := app.queries.IsRoomMember(context.Background(), owner.ID, rooms[0].ID)
	if err != nil || !isMember {
		t.Errorf("author membership = %v, %v; want member", isMember, err)
	}
}

func TestCreateRoom_Validation(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "owner", model.RoleUser)
	app.login(t, "owner")

	body := app.postForm(t, "/rooms/new", url.Values{"name": {"  "}})
	if !strings.Contains(body, "Room name is required") {
		t.Errorf("blank room name accepted: %s", body)
	}
}

func TestJoinLeaveRoom(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "owner", model.RoleUser)
	app.createUser(t, "walkin", model.RoleUser)

	app.login(t, "owner")
	room := createRoomVia(t, app, "open-door")
	app.get(t, RouteLogout)

	app.login(t, "walkin")
	body := app.postForm(t, roomURL(room.ID)+"/join", nil)
	if !strings.Contains(body, "Welcome to open-door") {
		t.Fatalf("join failed: %s", body)
	}

	// Joining twice reports the existing membership.
	body = app.postForm(t, roomURL(room.ID)+"/join", nil)
	if !strings.Contains(body, "already a member") {
		t.Errorf("second join: %s", body)
	}

	body = app.postForm(t, roomURL(room.ID)+"/leave", nil)
	if !strings.Contains(body, "You have left open-door") {
		t.Fatalf("leave failed: %s", body)
	}

	body = app.postForm(t, roomURL(room.ID)+"/leave", nil)
	if !strings.Contains(body, "not a member") {
		t.Errorf("second leave: %s", body)
	}
}

func TestDeleteRoom_Permissions(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "owner", model.RoleUser)
	member := app.createUser(t, "member", model.RoleUser)

	app.login(t, "owner")
	room := createRoomVia(t, app, "doomed", member.ID)
	app.get(t, RouteLogout)

	// A plain member cannot delete.
	app.login(t, "member")
	resp, _ := app.postFormResp(t, roomURL(room.ID)+"/delete", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("member delete status = %d, want 403", resp.StatusCode)
	}
	app.get(t, RouteLogout)

	// The author can, and memberships go with the room.
	app.login(t, "owner")
	body := app.postForm(t, roomURL(room.ID)+"/delete", nil)
	if !strings.Contains(body, "room has been deleted") {
		t.Fatalf("author delete failed: %s", body)
	}
	if _, err := app.queries.GetRoomByID(context.Background(), room.ID); err == nil {
		t.Error("room still present after delete")
	}
	isMember, err := app.queries.IsRoomMember(context.Background(), member.ID, room.ID)
	if err != nil || isMember {
		t.Errorf("membership survived room delete: %v, %v", isMember, err)
	}
}

func TestDeleteRoom_AdminMayDeleteAny(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "owner", model.RoleUser)
	app.createUser(t, "root", model.RoleAdministrator)

	app.login(t, "owner")
	room := createRoomVia(t, app, "condemned")
	app.get(t, RouteLogout)

	app.login(t, "root")
	body := app.postForm(t, roomURL(room.ID)+"/delete", nil)
	if !strings.Contains(body, "room has been deleted") {
		t.Errorf("admin delete failed: %s", body)
	}
}

func TestRoomWebsocket_MembersOnly(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "owner", model.RoleUser)
	app.createUser(t, "outsider", model.RoleUser)

	app.login(t, "owner")
	room := createRoomVia(t, app, "chatty")

	conn := app.dialRoom(t, room.ID)
	evt := readChatEvent(t, conn, ws.EventJoined)
	if evt.Username != "owner" || evt.RoomID != room.ID {
		t.Errorf("join event = %+v, want owner in room %d", evt, room.ID)
	}

	if err := conn.WriteJSON(map[string]string{"body": "hello room"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	evt = readChatEvent(t, conn, ws.EventMessage)
	if evt.Body != "hello room" || evt.Username != "owner" {
		t.Errorf("message event = %+v", evt)
	}
	app.get(t, RouteLogout)

	// Non-members are refused before the upgrade.
	app.login(t, "outsider")
	_, resp, err := app.wsDialer().Dial(app.wsURL(room.ID), nil)
	if err == nil {
		t.Fatal("non-member websocket dial succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("non-member dial response = %+v, want 403", resp)
	}
}

func (a *testApp) wsURL(roomID int64) string {
	return "ws" + strings.TrimPrefix(a.srv.URL, "http") + "/ws/rooms/" + formatID(roomID)
}

func (a *testApp) wsDialer() *websocket.Dialer {
	return &websocket.Dialer{Jar: a.client.Jar}
}

// dialRoom opens the room channel using the logged-in session cookie.
func (a *testApp) dialRoom(t *testing.T, roomID int64) *websocket.Conn {
	t.Helper()
	conn, _, err := a.wsDialer().Dial(a.wsURL(roomID), nil)
	if err != nil {
		t.Fatalf("dialing room %d: %v", roomID, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readChatEvent(t *testing.T, conn *websocket.Conn, wantType string) ws.Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		var evt ws.Event
		if err := conn.ReadJSON(&evt); err != nil {
			t.Fatalf("read: %v", err)
		}
		if evt.Type == wantType {
			return evt
		}
	}
	t.Fatalf("no %q event received", wantType)
	return ws.Event{}
}
