// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/blogo/internal/cache"
	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/service"
	"github.com/olegiv/blogo/internal/store"
)

// Can reports whether the user's role grants the permission. A nil user
// has no permissions at all.
func Can(r *http.Request, roles *cache.RoleCache, p model.Permission) bool {
	user := GetUser(r)
	if user == nil {
		return false
	}
	perms, err := roles.Permissions(r.Context(), user.RoleID)
	if err != nil {
		slog.Error("permission lookup failed", "user_id", user.ID, "role_id", user.RoleID, "error", err)
		return false
	}
	return perms.Has(p)
}

// IsAdmin reports whether the user's role carries the admin bit.
func IsAdmin(r *http.Request, roles *cache.RoleCache) bool {
	return Can(r, roles, model.PermAdmin)
}

// CanModifyPost reports whether the user may edit or delete the post:
// the author always can, and so can anyone holding the admin bit.
func CanModifyPost(r *http.Request, roles *cache.RoleCache, post *store.Post) bool {
	user := GetUser(r)
	if user == nil {
		return false
	}
	return post.IsAuthor(user.ID) || Can(r, roles, model.PermAdmin)
}

// RequirePermission creates middleware that requires a permission bit on
// the current user's role. Anonymous users are redirected to login;
// authenticated users lacking the bit get a 403.
func RequirePermission(roles *cache.RoleCache, p model.Permission) func(http.Handler) http.Handler {
	return RequirePermissionWithEventLog(roles, p, nil)
}

// RequirePermissionWithEventLog is RequirePermission with 403s recorded
// to the event log so that denied access shows up in the admin panel.
func RequirePermissionWithEventLog(roles *cache.RoleCache, p model.Permission, events *service.EventService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			if !Can(r, roles, p) {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"role_id", user.RoleID,
					"required_permission", int64(p),
					"remote_addr", r.RemoteAddr,
				)

				if events != nil {
					userID := user.ID
					metadata := map[string]any{
						"method":              r.Method,
						"path":                r.URL.Path,
						"status":              http.StatusForbidden,
						"role_id":             user.RoleID,
						"required_permission": int64(p),
					}
					_ = events.LogAuthEvent(r.Context(), model.EventLevelWarning,
						"Access denied: insufficient permissions", &userID, GetClientIP(r), metadata)
				}

				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin creates middleware that requires the admin permission bit.
func RequireAdmin(roles *cache.RoleCache) func(http.Handler) http.Handler {
	return RequirePermission(roles, model.PermAdmin)
}

// RequireModerator creates middleware that requires the moderate
// permission bit. Administrators pass as well since their role composes
// every bit.
func RequireModerator(roles *cache.RoleCache) func(http.Handler) http.Handler {
	return RequirePermission(roles, model.PermModerate)
}
