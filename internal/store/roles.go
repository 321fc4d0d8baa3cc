// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
)

// Role is a named set of capabilities. Exactly one role carries
// IsDefault; new users without an explicit role resolve to it.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	IsDefault   bool   `json:"is_default"`
	Permissions int64  `json:"permissions"`
}

const createRole = `
INSERT INTO roles (name, is_default, permissions)
VALUES (?, ?, ?)
RETURNING id, name, is_default, permissions`

// CreateRoleParams holds parameters for CreateRole.
type CreateRoleParams struct {
	Name        string
	IsDefault   bool
	Permissions int64
}

// CreateRole inserts a new role.
func (q *Queries) CreateRole(ctx context.Context, arg CreateRoleParams) (Role, error) {
	row := q.db.QueryRowContext(ctx, createRole, arg.Name, arg.IsDefault, arg.Permissions)
	var i Role
	err := row.Scan(&i.ID, &i.Name, &i.IsDefault, &i.Permissions)
	return i, err
}

const getRoleByID = `
SELECT id, name, is_default, permissions FROM roles WHERE id = ?`

// GetRoleByID fetches a role by primary key.
func (q *Queries) GetRoleByID(ctx context.Context, id int64) (Role, error) {
	row := q.db.QueryRowContext(ctx, getRoleByID, id)
	var i Role
	err := row.Scan(&i.ID, &i.Name, &i.IsDefault, &i.Permissions)
	return i, err
}

const getRoleByName = `
SELECT id, name, is_default, permissions FROM roles WHERE name = ?`

// GetRoleByName fetches a role by its unique name.
func (q *Queries) GetRoleByName(ctx context.Context, name string) (Role, error) {
	row := q.db.QueryRowContext(ctx, getRoleByName, name)
	var i Role
	err := row.Scan(&i.ID, &i.Name, &i.IsDefault, &i.Permissions)
	return i, err
}

const getDefaultRole = `
SELECT id, name, is_default, permissions FROM roles WHERE is_default = 1 LIMIT 1`

// GetDefaultRole fetches the role flagged as default. Returns
// sql.ErrNoRows when no default role exists; callers must treat that as
// a configuration error, not as "no role".
func (q *Queries) GetDefaultRole(ctx context.Context) (Role, error) {
	row := q.db.QueryRowContext(ctx, getDefaultRole)
	var i Role
	err := row.Scan(&i.ID, &i.Name, &i.IsDefault, &i.Permissions)
	return i, err
}

const listRoles = `
SELECT id, name, is_default, permissions FROM roles ORDER BY id`

// ListRoles returns all roles.
func (q *Queries) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := q.db.QueryContext(ctx, listRoles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Role
	for rows.Next() {
		var i Role
		if err := rows.Scan(&i.ID, &i.Name, &i.IsDefault, &i.Permissions); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateRolePermissions = `
UPDATE roles SET permissions = ? WHERE id = ?`

// UpdateRolePermissions replaces a role's permission bitmask.
func (q *Queries) UpdateRolePermissions(ctx context.Context, id, permissions int64) error {
	_, err := q.db.ExecContext(ctx, updateRolePermissions, permissions, id)
	return err
}

const updateRoleDefault = `
UPDATE roles SET is_default = ? WHERE id = ?`

// UpdateRoleDefault sets or clears a role's default flag.
func (q *Queries) UpdateRoleDefault(ctx context.Context, id int64, isDefault bool) error {
	_, err := q.db.ExecContext(ctx, updateRoleDefault, isDefault, id)
	return err
}
