// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/blogo/internal/model"
)

// SeedRoles creates or refreshes the canonical roles. It is safe to run
// on every startup: existing roles get their permissions reset and
// recomposed from the canonical definitions, and the default flag is
// forced onto exactly the configured default role. Users keep their
// role assignments across reseeds.
func (q *Queries) SeedRoles(ctx context.Context) error {
	for _, name := range []string{model.RoleUser, model.RoleModerator, model.RoleAdministrator} {
		perms, ok := model.RolePermissions(name)
		if !ok {
			return fmt.Errorf("unknown canonical role %q", name)
		}
		isDefault := name == model.RoleUser

		role, err := q.GetRoleByName(ctx, name)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := q.CreateRole(ctx, CreateRoleParams{
				Name:        name,
				IsDefault:   isDefault,
				Permissions: int64(perms),
			}); err != nil {
				return fmt.Errorf("create role %s: %w", name, err)
			}
			slog.Info("seeded role", "role", name, "permissions", int64(perms))
		case err != nil:
			return fmt.Errorf("lookup role %s: %w", name, err)
		default:
			if role.Permissions != int64(perms) {
				if err := q.UpdateRolePermissions(ctx, role.ID, int64(perms)); err != nil {
					return fmt.Errorf("update role %s permissions: %w", name, err)
				}
			}
			if role.IsDefault != isDefault {
				if err := q.UpdateRoleDefault(ctx, role.ID, isDefault); err != nil {
					return fmt.Errorf("update role %s default flag: %w", name, err)
				}
			}
		}
	}
	return nil
}

// EnsureAdminParams holds parameters for EnsureAdmin.
type EnsureAdminParams struct {
	Email        string
	Username     string
	PasswordHash string
}

// EnsureAdmin guarantees an administrator account exists for the
// configured admin email. A user already registered under that email is
// promoted to Administrator; otherwise a confirmed account is created.
func (q *Queries) EnsureAdmin(ctx context.Context, arg EnsureAdminParams) (User, error) {
	adminRole, err := q.GetRoleByName(ctx, model.RoleAdministrator)
	if err != nil {
		return User{}, fmt.Errorf("lookup administrator role: %w", err)
	}

	user, err := q.GetUserByEmail(ctx, arg.Email)
	if errors.Is(err, sql.ErrNoRows) {
		now := time.Now().UTC()
		created, err := q.CreateUser(ctx, CreateUserParams{
			Username:     arg.Username,
			Email:        arg.Email,
			PasswordHash: arg.PasswordHash,
			Confirmed:    true,
			RoleID:       adminRole.ID,
			MemberSince:  now,
			LastSeen:     now,
		})
		if err != nil {
			return User{}, fmt.Errorf("create admin user: %w", err)
		}
		slog.Info("created administrator account", "email", arg.Email)
		return created, nil
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup admin user: %w", err)
	}

	if user.RoleID != adminRole.ID {
		updated, err := q.UpdateUserAdmin(ctx, UpdateUserAdminParams{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			AboutMe:   user.AboutMe,
			RoleID:    adminRole.ID,
		})
		if err != nil {
			return User{}, fmt.Errorf("promote admin user: %w", err)
		}
		slog.Info("promoted account to administrator", "email", arg.Email)
		return updated, nil
	}
	return user, nil
}
