// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// Comment belongs to a post. Disabled is soft moderation: disabled
// comments are excluded from listings but stay addressable by id.
type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	Disabled  bool      `json:"disabled"`
	AuthorID  int64     `json:"author_id"`
	PostID    int64     `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAuthor compares the acting user's identifier to the stored author.
func (c *Comment) IsAuthor(userID int64) bool {
	return c.AuthorID == userID
}

const commentColumns = `id, body, disabled, author_id, post_id, created_at`

func scanComment(row interface{ Scan(...any) error }) (Comment, error) {
	var i Comment
	err := row.Scan(&i.ID, &i.Body, &i.Disabled, &i.AuthorID, &i.PostID, &i.CreatedAt)
	return i, err
}

const createComment = `
INSERT INTO comments (body, disabled, author_id, post_id, created_at)
VALUES (?, 0, ?, ?, ?)
RETURNING ` + commentColumns

// CreateCommentParams holds parameters for CreateComment.
type CreateCommentParams struct {
	Body      string
	AuthorID  int64
	PostID    int64
	CreatedAt time.Time
}

// CreateComment inserts a new, enabled comment.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	row := q.db.QueryRowContext(ctx, createComment, arg.Body, arg.AuthorID, arg.PostID, arg.CreatedAt)
	return scanComment(row)
}

const getCommentByID = `
SELECT ` + commentColumns + ` FROM comments WHERE id = ?`

// GetCommentByID fetches a comment by primary key, disabled or not.
// Moderation actions address comments by id even when hidden.
func (q *Queries) GetCommentByID(ctx context.Context, id int64) (Comment, error) {
	return scanComment(q.db.QueryRowContext(ctx, getCommentByID, id))
}

const updateCommentBody = `
UPDATE comments SET body = ? WHERE id = ?
RETURNING ` + commentColumns

// UpdateCommentBody replaces a comment's text.
func (q *Queries) UpdateCommentBody(ctx context.Context, id int64, body string) (Comment, error) {
	return scanComment(q.db.QueryRowContext(ctx, updateCommentBody, body, id))
}

const setCommentDisabled = `
UPDATE comments SET disabled = ? WHERE id = ?`

// SetCommentDisabled toggles moderation state.
func (q *Queries) SetCommentDisabled(ctx context.Context, id int64, disabled bool) error {
	_, err := q.db.ExecContext(ctx, setCommentDisabled, disabled, id)
	return err
}

const listVisibleComments = `
SELECT ` + commentColumns + ` FROM comments
WHERE post_id = ? AND disabled = 0
ORDER BY created_at
LIMIT ? OFFSET ?`

// ListVisibleCommentsParams holds parameters for ListVisibleComments.
type ListVisibleCommentsParams struct {
	PostID int64
	Limit  int64
	Offset int64
}

// ListVisibleComments returns a page of a post's comments with disabled
// rows filtered out.
func (q *Queries) ListVisibleComments(ctx context.Context, arg ListVisibleCommentsParams) ([]Comment, error) {
	rows, err := q.db.QueryContext(ctx, listVisibleComments, arg.PostID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Comment
	for rows.Next() {
		i, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countVisibleComments = `
SELECT COUNT(*) FROM comments WHERE post_id = ? AND disabled = 0`

// CountVisibleComments counts a post's comments excluding disabled rows.
func (q *Queries) CountVisibleComments(ctx context.Context, postID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countVisibleComments, postID).Scan(&n)
	return n, err
}

const listComments = `
SELECT ` + commentColumns + ` FROM comments
ORDER BY created_at DESC
LIMIT ? OFFSET ?`

// ListCommentsParams holds pagination parameters for ListComments.
type ListCommentsParams struct {
	Limit  int64
	Offset int64
}

// ListComments returns a page of all comments, newest first, disabled
// rows included. Used by the moderation surface.
func (q *Queries) ListComments(ctx context.Context, arg ListCommentsParams) ([]Comment, error) {
	rows, err := q.db.QueryContext(ctx, listComments, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Comment
	for rows.Next() {
		i, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countComments = `
SELECT COUNT(*) FROM comments`

// CountComments counts all comments, disabled included.
func (q *Queries) CountComments(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countComments).Scan(&n)
	return n, err
}

const countCommentsForPost = `
SELECT COUNT(*) FROM comments WHERE post_id = ?`

// CountCommentsForPost counts all of a post's comments, disabled included.
func (q *Queries) CountCommentsForPost(ctx context.Context, postID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCommentsForPost, postID).Scan(&n)
	return n, err
}
