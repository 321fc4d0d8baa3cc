// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/olegiv/blogo/internal/model"
)

// User is an account record. PasswordHash is write-only at the HTTP
// surface: it is never rendered and never serialized.
type User struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	Confirmed    bool         `json:"confirmed"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	AboutMe      string       `json:"about_me"`
	NewsLetter   bool         `json:"news_letter"`
	RoleID       int64        `json:"role_id"`
	MemberSince  time.Time    `json:"member_since"`
	LastSeen     time.Time    `json:"last_seen"`
	DeletedAt    sql.NullTime `json:"deleted_at,omitempty"`
}

// FullName returns the user's display name, falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// IsDeleted reports whether the account has been soft-deleted.
func (u *User) IsDeleted() bool {
	return u.DeletedAt.Valid
}

// IsOnline reports whether the user counts as online right now. This
// is derived from last_seen on every call, never cached.
func (u *User) IsOnline() bool {
	return model.IsOnline(u.LastSeen, time.Now())
}

const userColumns = `id, username, email, password_hash, confirmed, first_name, last_name,
	about_me, news_letter, role_id, member_since, last_seen, deleted_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID, &i.Username, &i.Email, &i.PasswordHash, &i.Confirmed,
		&i.FirstName, &i.LastName, &i.AboutMe, &i.NewsLetter,
		&i.RoleID, &i.MemberSince, &i.LastSeen, &i.DeletedAt,
	)
	return i, err
}

const createUser = `
INSERT INTO users (username, email, password_hash, confirmed, first_name, last_name,
	about_me, news_letter, role_id, member_since, last_seen)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

// CreateUserParams holds parameters for CreateUser.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	Confirmed    bool
	FirstName    string
	LastName     string
	AboutMe      string
	NewsLetter   bool
	RoleID       int64
	MemberSince  time.Time
	LastSeen     time.Time
}

// CreateUser inserts a new user.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Username, arg.Email, arg.PasswordHash, arg.Confirmed,
		arg.FirstName, arg.LastName, arg.AboutMe, arg.NewsLetter,
		arg.RoleID, arg.MemberSince, arg.LastSeen,
	)
	return scanUser(row)
}

const getUserByID = `
SELECT ` + userColumns + ` FROM users WHERE id = ?`

// GetUserByID fetches a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByUsername = `
SELECT ` + userColumns + ` FROM users WHERE username = ?`

// GetUserByUsername fetches a user by unique username.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

const getUserByEmail = `
SELECT ` + userColumns + ` FROM users WHERE email = ?`

// GetUserByEmail fetches a user by unique email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const getUserByLogin = `
SELECT ` + userColumns + ` FROM users WHERE username = ? OR email = ?`

// GetUserByLogin fetches a user by username or email; the login form
// accepts either in one field.
func (q *Queries) GetUserByLogin(ctx context.Context, login string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByLogin, login, login))
}

const updateUserProfile = `
UPDATE users SET first_name = ?, last_name = ?, about_me = ?, news_letter = ?
WHERE id = ?
RETURNING ` + userColumns

// UpdateUserProfileParams holds parameters for UpdateUserProfile.
type UpdateUserProfileParams struct {
	ID         int64
	FirstName  string
	LastName   string
	AboutMe    string
	NewsLetter bool
}

// UpdateUserProfile updates the fields a user may edit about themselves.
func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserProfile,
		arg.FirstName, arg.LastName, arg.AboutMe, arg.NewsLetter, arg.ID)
	return scanUser(row)
}

const updateUserAdmin = `
UPDATE users SET username = ?, email = ?, first_name = ?, last_name = ?, about_me = ?, role_id = ?
WHERE id = ?
RETURNING ` + userColumns

// UpdateUserAdminParams holds parameters for UpdateUserAdmin.
type UpdateUserAdminParams struct {
	ID        int64
	Username  string
	Email     string
	FirstName string
	LastName  string
	AboutMe   string
	RoleID    int64
}

// UpdateUserAdmin updates the fields an administrator may edit on any user.
func (q *Queries) UpdateUserAdmin(ctx context.Context, arg UpdateUserAdminParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserAdmin,
		arg.Username, arg.Email, arg.FirstName, arg.LastName, arg.AboutMe, arg.RoleID, arg.ID)
	return scanUser(row)
}

const updateUserPassword = `
UPDATE users SET password_hash = ? WHERE id = ?`

// UpdateUserPassword replaces the stored password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, passwordHash, id)
	return err
}

const confirmUser = `
UPDATE users SET confirmed = 1 WHERE id = ?`

// ConfirmUser marks the account's email as confirmed.
func (q *Queries) ConfirmUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, confirmUser, id)
	return err
}

const updateLastSeen = `
UPDATE users SET last_seen = ? WHERE id = ?`

// UpdateLastSeen records user activity; presence is derived from this
// timestamp.
func (q *Queries) UpdateLastSeen(ctx context.Context, id int64, lastSeen time.Time) error {
	_, err := q.db.ExecContext(ctx, updateLastSeen, lastSeen, id)
	return err
}

const softDeleteUser = `
UPDATE users SET deleted_at = ? WHERE id = ?`

// SoftDeleteUser tombstones the account. Users are never hard-deleted.
func (q *Queries) SoftDeleteUser(ctx context.Context, id int64, deletedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, softDeleteUser, deletedAt, id)
	return err
}

const undeleteUser = `
UPDATE users SET deleted_at = NULL WHERE id = ?`

// UndeleteUser restores a soft-deleted account.
func (q *Queries) UndeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, undeleteUser, id)
	return err
}

const listUsers = `
SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT ? OFFSET ?`

// ListUsersParams holds pagination parameters for ListUsers.
type ListUsersParams struct {
	Limit  int64
	Offset int64
}

// ListUsers returns a page of users ordered by id.
func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	return q.queryUsers(ctx, listUsers, arg.Limit, arg.Offset)
}

const countUsers = `
SELECT COUNT(*) FROM users`

// CountUsers returns the total number of users, including soft-deleted ones.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}

const listUsersSeenSince = `
SELECT ` + userColumns + ` FROM users
WHERE last_seen > ? AND deleted_at IS NULL
ORDER BY last_seen DESC
LIMIT ? OFFSET ?`

// ListUsersSeenSinceParams holds parameters for ListUsersSeenSince.
type ListUsersSeenSinceParams struct {
	Since  time.Time
	Limit  int64
	Offset int64
}

// ListUsersSeenSince returns active users seen after the given instant,
// most recently seen first.
func (q *Queries) ListUsersSeenSince(ctx context.Context, arg ListUsersSeenSinceParams) ([]User, error) {
	return q.queryUsers(ctx, listUsersSeenSince, arg.Since, arg.Limit, arg.Offset)
}

const countUsersSeenSince = `
SELECT COUNT(*) FROM users WHERE last_seen > ? AND deleted_at IS NULL`

// CountUsersSeenSince counts active users seen after the given instant.
func (q *Queries) CountUsersSeenSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsersSeenSince, since).Scan(&n)
	return n, err
}

const listNewsletterSubscribers = `
SELECT ` + userColumns + ` FROM users
WHERE news_letter = 1 AND confirmed = 1 AND deleted_at IS NULL
ORDER BY id`

// ListNewsletterSubscribers returns confirmed, active accounts that
// opted into the newsletter.
func (q *Queries) ListNewsletterSubscribers(ctx context.Context) ([]User, error) {
	return q.queryUsers(ctx, listNewsletterSubscribers)
}

const listAllActiveUsers = `
SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL ORDER BY username`

// ListAllActiveUsers returns every non-deleted user, for member
// selection when creating a room.
func (q *Queries) ListAllActiveUsers(ctx context.Context) ([]User, error) {
	return q.queryUsers(ctx, listAllActiveUsers)
}

func (q *Queries) queryUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []User
	for rows.Next() {
		i, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
