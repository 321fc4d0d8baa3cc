// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Follow is a directed edge: follower follows followed. The composite
// primary key admits at most one edge per ordered pair; mutual follows
// are two independent rows.
type Follow struct {
	FollowerID int64     `json:"follower_id"`
	FollowedID int64     `json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}

const createFollow = `
INSERT INTO follows (follower_id, followed_id, created_at)
VALUES (?, ?, ?)`

// CreateFollowParams holds parameters for CreateFollow.
type CreateFollowParams struct {
	FollowerID int64
	FollowedID int64
	CreatedAt  time.Time
}

// CreateFollow inserts a follow edge. A unique-constraint violation
// means the edge already exists; callers treat it as "already
// following", not as a fault.
func (q *Queries) CreateFollow(ctx context.Context, arg CreateFollowParams) error {
	_, err := q.db.ExecContext(ctx, createFollow, arg.FollowerID, arg.FollowedID, arg.CreatedAt)
	return err
}

const deleteFollow = `
DELETE FROM follows WHERE follower_id = ? AND followed_id = ?`

// DeleteFollow removes a follow edge, reporting whether one existed.
func (q *Queries) DeleteFollow(ctx context.Context, followerID, followedID int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, deleteFollow, followerID, followedID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const isFollowing = `
SELECT 1 FROM follows WHERE follower_id = ? AND followed_id = ?`

// IsFollowing reports whether follower follows followed.
func (q *Queries) IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx, isFollowing, followerID, followedID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

const countFollowers = `
SELECT COUNT(*) FROM follows WHERE followed_id = ?`

// CountFollowers counts edges pointing at the user.
func (q *Queries) CountFollowers(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countFollowers, userID).Scan(&n)
	return n, err
}

const countFollowing = `
SELECT COUNT(*) FROM follows WHERE follower_id = ?`

// CountFollowing counts edges originating at the user.
func (q *Queries) CountFollowing(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countFollowing, userID).Scan(&n)
	return n, err
}

const listFollowers = `
SELECT ` + userColumns + ` FROM users
JOIN follows ON follows.follower_id = users.id
WHERE follows.followed_id = ?
ORDER BY follows.created_at DESC
LIMIT ? OFFSET ?`

// ListFollowersParams holds parameters for ListFollowers.
type ListFollowersParams struct {
	UserID int64
	Limit  int64
	Offset int64
}

// ListFollowers returns users following the given user, newest edge first.
func (q *Queries) ListFollowers(ctx context.Context, arg ListFollowersParams) ([]User, error) {
	return q.queryUsers(ctx, listFollowers, arg.UserID, arg.Limit, arg.Offset)
}

const listFollowing = `
SELECT ` + userColumns + ` FROM users
JOIN follows ON follows.followed_id = users.id
WHERE follows.follower_id = ?
ORDER BY follows.created_at DESC
LIMIT ? OFFSET ?`

// ListFollowing returns users the given user follows, newest edge first.
func (q *Queries) ListFollowing(ctx context.Context, arg ListFollowersParams) ([]User, error) {
	return q.queryUsers(ctx, listFollowing, arg.UserID, arg.Limit, arg.Offset)
}
