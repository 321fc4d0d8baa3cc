// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// Post is a blog entry. ImageFile holds only the stored reference
// returned by the upload store; the file itself lives outside the DB.
type Post struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	Slug      string         `json:"slug"`
	Body      string         `json:"body"`
	ImageFile sql.NullString `json:"image_file,omitempty"`
	AuthorID  int64          `json:"author_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IsAuthor compares the acting user's identifier to the stored author
// reference. Identity is always compared by id, never by name.
func (p *Post) IsAuthor(userID int64) bool {
	return p.AuthorID == userID
}

const postColumns = `id, title, slug, body, image_file, author_id, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (Post, error) {
	var i Post
	err := row.Scan(&i.ID, &i.Title, &i.Slug, &i.Body, &i.ImageFile, &i.AuthorID, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const createPost = `
INSERT INTO posts (title, slug, body, image_file, author_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + postColumns

// CreatePostParams holds parameters for CreatePost.
type CreatePostParams struct {
	Title     string
	Slug      string
	Body      string
	ImageFile sql.NullString
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePost inserts a new post.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, createPost,
		arg.Title, arg.Slug, arg.Body, arg.ImageFile, arg.AuthorID, arg.CreatedAt, arg.UpdatedAt)
	return scanPost(row)
}

const getPostByID = `
SELECT ` + postColumns + ` FROM posts WHERE id = ?`

// GetPostByID fetches a post by primary key.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPostByID, id))
}

const updatePost = `
UPDATE posts SET title = ?, slug = ?, body = ?, image_file = ?, updated_at = ?
WHERE id = ?
RETURNING ` + postColumns

// UpdatePostParams holds parameters for UpdatePost.
type UpdatePostParams struct {
	ID        int64
	Title     string
	Slug      string
	Body      string
	ImageFile sql.NullString
	UpdatedAt time.Time
}

// UpdatePost updates a post's content.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, updatePost,
		arg.Title, arg.Slug, arg.Body, arg.ImageFile, arg.UpdatedAt, arg.ID)
	return scanPost(row)
}

const deletePost = `
DELETE FROM posts WHERE id = ?`

// DeletePost removes a post. Its comments are removed by FK cascade;
// the caller is responsible for removing the stored image reference.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePost, id)
	return err
}

const listPosts = `
SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC LIMIT ? OFFSET ?`

// ListPostsParams holds pagination parameters for ListPosts.
type ListPostsParams struct {
	Limit  int64
	Offset int64
}

// ListPosts returns a page of posts, newest first.
func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]Post, error) {
	return q.queryPosts(ctx, listPosts, arg.Limit, arg.Offset)
}

const countPosts = `
SELECT COUNT(*) FROM posts`

// CountPosts returns the total number of posts.
func (q *Queries) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPosts).Scan(&n)
	return n, err
}

const listPostsByAuthor = `
SELECT ` + postColumns + ` FROM posts WHERE author_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

// ListPostsByAuthorParams holds parameters for ListPostsByAuthor.
type ListPostsByAuthorParams struct {
	AuthorID int64
	Limit    int64
	Offset   int64
}

// ListPostsByAuthor returns a page of one author's posts, newest first.
func (q *Queries) ListPostsByAuthor(ctx context.Context, arg ListPostsByAuthorParams) ([]Post, error) {
	return q.queryPosts(ctx, listPostsByAuthor, arg.AuthorID, arg.Limit, arg.Offset)
}

const countPostsByAuthor = `
SELECT COUNT(*) FROM posts WHERE author_id = ?`

// CountPostsByAuthor counts one author's posts.
func (q *Queries) CountPostsByAuthor(ctx context.Context, authorID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPostsByAuthor, authorID).Scan(&n)
	return n, err
}

const listAllPosts = `
SELECT ` + postColumns + ` FROM posts ORDER BY id`

// ListAllPosts returns every post, for sitemap generation.
func (q *Queries) ListAllPosts(ctx context.Context) ([]Post, error) {
	return q.queryPosts(ctx, listAllPosts)
}

const listPostsSince = `
SELECT ` + postColumns + ` FROM posts WHERE created_at > ? ORDER BY created_at DESC`

// ListPostsSince returns posts created after the given instant, for the
// newsletter digest.
func (q *Queries) ListPostsSince(ctx context.Context, since time.Time) ([]Post, error) {
	return q.queryPosts(ctx, listPostsSince, since)
}

func (q *Queries) queryPosts(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Post
	for rows.Next() {
		i, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
