// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Room is a chat room. Membership lives in room_users; the author is
// always a member.
type Room struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAuthor compares the acting user's identifier to the stored author.
func (r *Room) IsAuthor(userID int64) bool {
	return r.AuthorID == userID
}

// RoomMember is a membership row joined with its user.
type RoomMember struct {
	User     User      `json:"user"`
	JoinedAt time.Time `json:"joined_at"`
}

const createRoom = `
INSERT INTO rooms (name, author_id, created_at)
VALUES (?, ?, ?)
RETURNING id, name, author_id, created_at`

// CreateRoomParams holds parameters for CreateRoom.
type CreateRoomParams struct {
	Name      string
	AuthorID  int64
	CreatedAt time.Time
}

// CreateRoom inserts a room row. Membership, including the author's
// own, is added separately with AddRoomMember.
func (q *Queries) CreateRoom(ctx context.Context, arg CreateRoomParams) (Room, error) {
	row := q.db.QueryRowContext(ctx, createRoom, arg.Name, arg.AuthorID, arg.CreatedAt)
	var i Room
	err := row.Scan(&i.ID, &i.Name, &i.AuthorID, &i.CreatedAt)
	return i, err
}

// CreateRoomWithMembersParams holds parameters for CreateRoomWithMembers.
// The author is always added as a member, whether or not MemberIDs
// lists them.
type CreateRoomWithMembersParams struct {
	Name      string
	AuthorID  int64
	MemberIDs []int64
	CreatedAt time.Time
}

// CreateRoomWithMembers creates a room and its initial memberships in
// one transaction. Either the room exists with the author (and any
// selected members) inside it, or nothing persists; a room can never
// be observed without members.
func CreateRoomWithMembers(ctx context.Context, db *sql.DB, arg CreateRoomWithMembersParams) (Room, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Room{}, err
	}
	defer func() { _ = tx.Rollback() }()

	q := New(db).WithTx(tx)
	room, err := q.CreateRoom(ctx, CreateRoomParams{
		Name:      arg.Name,
		AuthorID:  arg.AuthorID,
		CreatedAt: arg.CreatedAt,
	})
	if err != nil {
		return Room{}, err
	}

	seen := make(map[int64]bool, len(arg.MemberIDs)+1)
	for _, id := range append([]int64{arg.AuthorID}, arg.MemberIDs...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := q.AddRoomMember(ctx, AddRoomMemberParams{
			UserID:   id,
			RoomID:   room.ID,
			JoinedAt: arg.CreatedAt,
		}); err != nil {
			return Room{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Room{}, err
	}
	return room, nil
}

const getRoomByID = `
SELECT id, name, author_id, created_at FROM rooms WHERE id = ?`

// GetRoomByID fetches a room by primary key.
func (q *Queries) GetRoomByID(ctx context.Context, id int64) (Room, error) {
	row := q.db.QueryRowContext(ctx, getRoomByID, id)
	var i Room
	err := row.Scan(&i.ID, &i.Name, &i.AuthorID, &i.CreatedAt)
	return i, err
}

const deleteRoom = `
DELETE FROM rooms WHERE id = ?`

// DeleteRoom removes a room; membership rows go with it by FK cascade.
func (q *Queries) DeleteRoom(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteRoom, id)
	return err
}

const listRooms = `
SELECT id, name, author_id, created_at FROM rooms ORDER BY created_at DESC LIMIT ? OFFSET ?`

// ListRoomsParams holds pagination parameters for ListRooms.
type ListRoomsParams struct {
	Limit  int64
	Offset int64
}

// ListRooms returns a page of rooms, newest first.
func (q *Queries) ListRooms(ctx context.Context, arg ListRoomsParams) ([]Room, error) {
	rows, err := q.db.QueryContext(ctx, listRooms, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Room
	for rows.Next() {
		var i Room
		if err := rows.Scan(&i.ID, &i.Name, &i.AuthorID, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countRooms = `
SELECT COUNT(*) FROM rooms`

// CountRooms returns the total number of rooms.
func (q *Queries) CountRooms(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countRooms).Scan(&n)
	return n, err
}

const addRoomMember = `
INSERT INTO room_users (user_id, room_id, joined_at)
VALUES (?, ?, ?)
ON CONFLICT (user_id, room_id) DO NOTHING`

// AddRoomMemberParams holds parameters for AddRoomMember.
type AddRoomMemberParams struct {
	UserID   int64
	RoomID   int64
	JoinedAt time.Time
}

// AddRoomMember adds a membership row. Adding an existing member is a
// no-op; at most one association exists per (user, room) pair.
func (q *Queries) AddRoomMember(ctx context.Context, arg AddRoomMemberParams) error {
	_, err := q.db.ExecContext(ctx, addRoomMember, arg.UserID, arg.RoomID, arg.JoinedAt)
	return err
}

const removeRoomMember = `
DELETE FROM room_users WHERE user_id = ? AND room_id = ?`

// RemoveRoomMember deletes a membership row, reporting whether one existed.
func (q *Queries) RemoveRoomMember(ctx context.Context, userID, roomID int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, removeRoomMember, userID, roomID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const isRoomMember = `
SELECT 1 FROM room_users WHERE user_id = ? AND room_id = ?`

// IsRoomMember reports whether the user belongs to the room.
func (q *Queries) IsRoomMember(ctx context.Context, userID, roomID int64) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx, isRoomMember, userID, roomID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

const listRoomMembers = `
SELECT ` + userColumns + `, room_users.joined_at FROM users
JOIN room_users ON room_users.user_id = users.id
WHERE room_users.room_id = ?
ORDER BY room_users.joined_at`

// ListRoomMembers returns a room's members with their join timestamps.
func (q *Queries) ListRoomMembers(ctx context.Context, roomID int64) ([]RoomMember, error) {
	rows, err := q.db.QueryContext(ctx, listRoomMembers, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RoomMember
	for rows.Next() {
		var m RoomMember
		err := rows.Scan(
			&m.User.ID, &m.User.Username, &m.User.Email, &m.User.PasswordHash, &m.User.Confirmed,
			&m.User.FirstName, &m.User.LastName, &m.User.AboutMe, &m.User.NewsLetter,
			&m.User.RoleID, &m.User.MemberSince, &m.User.LastSeen, &m.User.DeletedAt,
			&m.JoinedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const countRoomMembers = `
SELECT COUNT(*) FROM room_users WHERE room_id = ?`

// CountRoomMembers counts a room's membership rows.
func (q *Queries) CountRoomMembers(ctx context.Context, roomID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countRoomMembers, roomID).Scan(&n)
	return n, err
}
