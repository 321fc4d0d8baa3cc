// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	netmail "net/mail"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogo/internal/auth"
	"github.com/olegiv/blogo/internal/cache"
	"github.com/olegiv/blogo/internal/middleware"
	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/render"
	"github.com/olegiv/blogo/internal/service"
	"github.com/olegiv/blogo/internal/store"
)

// UserHandler handles public profiles, profile editing, the online
// users page and the admin user surface.
type UserHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	eventService *service.EventService
	roles        *cache.RoleCache
	perPage      int
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *sql.DB, renderer *render.Renderer, roles *cache.RoleCache, perPage int) *UserHandler {
	if perPage <= 0 {
		perPage = UsersPerPage
	}
	return &UserHandler{
		queries:      store.New(db),
		renderer:     renderer,
		eventService: service.NewEventService(db),
		roles:        roles,
		perPage:      perPage,
	}
}

// Profile renders a user's public page with their posts.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user, err := h.queries.GetUserByUsername(r.Context(), username)
	if err != nil || user.IsDeleted() {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			internalError(w, r, h.renderer, "loading profile failed", "error", err, "username", username)
			return
		}
		notFound(w, r, h.renderer)
		return
	}

	count, err := h.queries.CountPostsByAuthor(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, h.renderer, "counting posts failed", "error", err, "user_id", user.ID)
		return
	}
	pagination := BuildPagination(pageParam(r), count, PostsPerPage, "/user/"+user.Username, r.URL.Query())
	posts, err := h.queries.ListPostsByAuthor(r.Context(), store.ListPostsByAuthorParams{
		AuthorID: user.ID,
		Limit:    int64(PostsPerPage),
		Offset:   pagination.Offset(),
	})
	if err != nil {
		internalError(w, r, h.renderer, "listing posts failed", "error", err, "user_id", user.ID)
		return
	}

	followers, err := h.queries.CountFollowers(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, h.renderer, "counting followers failed", "error", err, "user_id", user.ID)
		return
	}
	following, err := h.queries.CountFollowing(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, h.renderer, "counting following failed", "error", err, "user_id", user.ID)
		return
	}

	viewerFollows := false
	isSelf := false
	if viewerID := middleware.GetUserID(r); viewerID > 0 {
		isSelf = viewerID == user.ID
		if !isSelf {
			viewerFollows, err = h.queries.IsFollowing(r.Context(), viewerID, user.ID)
			if err != nil {
				internalError(w, r, h.renderer, "checking follow failed", "error", err)
				return
			}
		}
	}

	renderPage(w, r, h.renderer, "blog/user", render.TemplateData{
		Title: user.Username,
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Profile":       user,
			"Posts":         posts,
			"Pagination":    pagination,
			"Followers":     followers,
			"Following":     following,
			"ViewerFollows": viewerFollows,
			"IsSelf":        isSelf,
			"IsOnline":      user.IsOnline(),
			"CanFollow":     middleware.Can(r, h.roles, model.PermFollow),
		},
	})
}

// EditProfileForm renders the profile editing page for the logged-in
// user.
func (h *UserHandler) EditProfileForm(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	renderPage(w, r, h.renderer, "auth/edit_profile", render.TemplateData{
		Title: "Edit Profile",
		User:  user,
		Data:  map[string]any{"Profile": user},
	})
}

// EditProfile updates the logged-in user's own profile. The current
// password is required to apply any change.
func (h *UserHandler) EditProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if !parseFormOrRedirect(w, r, h.renderer, "/user/edit") {
		return
	}

	ok, err := auth.CheckPassword(r.FormValue("current_password"), user.PasswordHash)
	if err != nil {
		internalError(w, r, h.renderer, "password verification error", "error", err, "user_id", user.ID)
		return
	}
	if !ok {
		flashError(w, r, h.renderer, "/user/edit", "Current password is incorrect")
		return
	}

	aboutMe := strings.TrimSpace(r.FormValue("about_me"))
	if len(aboutMe) > MaxAboutMeLength {
		flashError(w, r, h.renderer, "/user/edit", "About me is too long")
		return
	}

	// The optional password change rides along with the same form. It
	// is validated and hashed before anything is written so a rejected
	// password leaves the whole form unapplied.
	var newHash string
	if newPassword := r.FormValue("new_password"); newPassword != "" {
		if len(newPassword) < MinPasswordLength {
			flashError(w, r, h.renderer, "/user/edit",
				fmt.Sprintf("New password must be at least %d characters", MinPasswordLength))
			return
		}
		hash, herr := auth.HashPassword(newPassword)
		if herr != nil {
			internalError(w, r, h.renderer, "password hashing failed", "error", herr)
			return
		}
		newHash = hash
	}

	updated, err := h.queries.UpdateUserProfile(r.Context(), store.UpdateUserProfileParams{
		ID:         user.ID,
		FirstName:  strings.TrimSpace(r.FormValue("first_name")),
		LastName:   strings.TrimSpace(r.FormValue("last_name")),
		AboutMe:    aboutMe,
		NewsLetter: r.FormValue("news_letter") != "",
	})
	if err != nil {
		internalError(w, r, h.renderer, "updating profile failed", "error", err, "user_id", user.ID)
		return
	}

	if newHash != "" {
		if err := h.queries.UpdateUserPassword(r.Context(), user.ID, newHash); err != nil {
			internalError(w, r, h.renderer, "updating password failed", "error", err, "user_id", user.ID)
			return
		}
	}

	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo,
		"Profile updated", &user.ID, middleware.GetClientIP(r), nil)
	flashSuccess(w, r, h.renderer, "/user/"+updated.Username, "Your profile has been updated")
}

// OnlineUsers lists users active within the activity window.
func (h *UserHandler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-model.ActivityWindow)
	count, err := h.queries.CountUsersSeenSince(r.Context(), since)
	if err != nil {
		internalError(w, r, h.renderer, "counting online users failed", "error", err)
		return
	}
	pagination := BuildPagination(pageParam(r), count, h.perPage, "/users/online", r.URL.Query())
	users, err := h.queries.ListUsersSeenSince(r.Context(), store.ListUsersSeenSinceParams{
		Since:  since,
		Limit:  int64(h.perPage),
		Offset: pagination.Offset(),
	})
	if err != nil {
		internalError(w, r, h.renderer, "listing online users failed", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "blog/online", render.TemplateData{
		Title: "Online Users",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Users":      users,
			"Pagination": pagination,
		},
	})
}

// AdminUsers lists all accounts, including soft-deleted ones.
func (h *UserHandler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	count, err := h.queries.CountUsers(r.Context())
	if err != nil {
		internalError(w, r, h.renderer, "counting users failed", "error", err)
		return
	}
	pagination := BuildPagination(pageParam(r), count, h.perPage, redirectAdmin, r.URL.Query())
	users, err := h.queries.ListUsers(r.Context(), store.ListUsersParams{
		Limit:  int64(h.perPage),
		Offset: pagination.Offset(),
	})
	if err != nil {
		internalError(w, r, h.renderer, "listing users failed", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "admin/users", render.TemplateData{
		Title: "Users",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Users":      users,
			"Pagination": pagination,
		},
	})
}

// AdminEditUserForm renders the admin editing page for one account.
func (h *UserHandler) AdminEditUserForm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	target, ok := requireEntity(w, r, h.renderer, "user", id,
		func(id int64) (store.User, error) { return h.queries.GetUserByID(r.Context(), id) })
	if !ok {
		return
	}
	roles, err := h.queries.ListRoles(r.Context())
	if err != nil {
		internalError(w, r, h.renderer, "listing roles failed", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "admin/user_edit", render.TemplateData{
		Title: "Edit " + target.Username,
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Target": target,
			"Roles":  roles,
		},
	})
}

// AdminEditUser applies an administrator's changes to an account:
// username, email, names, role and optionally a new password.
func (h *UserHandler) AdminEditUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	target, ok := requireEntity(w, r, h.renderer, "user", id,
		func(id int64) (store.User, error) { return h.queries.GetUserByID(r.Context(), id) })
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdmin) {
		return
	}

	editURL := fmt.Sprintf("/admin/users/%d", id)
	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	roleID, rerr := parseInt64(r.FormValue("role_id"))
	if username == "" || email == "" || rerr != nil {
		flashError(w, r, h.renderer, editURL, "Username, email and role are required")
		return
	}
	if _, err := netmail.ParseAddress(email); err != nil {
		flashError(w, r, h.renderer, editURL, "Invalid email address")
		return
	}
	if _, err := h.queries.GetRoleByID(r.Context(), roleID); err != nil {
		flashError(w, r, h.renderer, editURL, "Unknown role")
		return
	}

	// An invalid replacement password must reject the whole form, so it
	// is validated and hashed before the account row is touched.
	var newHash string
	if newPassword := r.FormValue("new_password"); newPassword != "" {
		if len(newPassword) < MinPasswordLength {
			flashError(w, r, h.renderer, editURL,
				fmt.Sprintf("New password must be at least %d characters", MinPasswordLength))
			return
		}
		hash, herr := auth.HashPassword(newPassword)
		if herr != nil {
			internalError(w, r, h.renderer, "password hashing failed", "error", herr)
			return
		}
		newHash = hash
	}

	updated, err := h.queries.UpdateUserAdmin(r.Context(), store.UpdateUserAdminParams{
		ID:        target.ID,
		Username:  username,
		Email:     email,
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		AboutMe:   strings.TrimSpace(r.FormValue("about_me")),
		RoleID:    roleID,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			flashError(w, r, h.renderer, editURL, "Username or email is already taken")
			return
		}
		internalError(w, r, h.renderer, "updating user failed", "error", err, "user_id", target.ID)
		return
	}

	if newHash != "" {
		if err := h.queries.UpdateUserPassword(r.Context(), target.ID, newHash); err != nil {
			internalError(w, r, h.renderer, "updating password failed", "error", err, "user_id", target.ID)
			return
		}
	}

	// Refresh the cached role rows so the change is visible on the
	// target's next request.
	if target.RoleID != updated.RoleID {
		for _, roleID := range []int64{target.RoleID, updated.RoleID} {
			if err := h.roles.Invalidate(r.Context(), roleID); err != nil {
				internalError(w, r, h.renderer, "invalidating role cache failed", "error", err)
				return
			}
		}
	}

	actorID := middleware.GetUserIDPtr(r)
	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo,
		"User edited by administrator", actorID, middleware.GetClientIP(r),
		map[string]any{"target_id": target.ID, "role_id": updated.RoleID})
	flashSuccess(w, r, h.renderer, redirectAdmin, "User updated")
}

// AdminDeleteUser soft-deletes an account. Administrators cannot be
// deleted; the account stays addressable and can be restored.
func (h *UserHandler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	target, ok := requireEntity(w, r, h.renderer, "user", id,
		func(id int64) (store.User, error) { return h.queries.GetUserByID(r.Context(), id) })
	if !ok {
		return
	}

	perms, err := h.roles.Permissions(r.Context(), target.RoleID)
	if err != nil {
		internalError(w, r, h.renderer, "resolving role failed", "error", err, "user_id", target.ID)
		return
	}
	if perms.Has(model.PermAdmin) {
		flashError(w, r, h.renderer, redirectAdmin, "Administrators cannot be deleted")
		return
	}
	if target.IsDeleted() {
		flashInfo(w, r, h.renderer, redirectAdmin, "User is already deleted")
		return
	}

	if err := h.queries.SoftDeleteUser(r.Context(), target.ID, time.Now().UTC()); err != nil {
		internalError(w, r, h.renderer, "deleting user failed", "error", err, "user_id", target.ID)
		return
	}
	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelWarning,
		"User soft-deleted", middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"target_id": target.ID})
	flashSuccess(w, r, h.renderer, redirectAdmin, "User deleted")
}

// AdminUndeleteUser restores a soft-deleted account.
func (h *UserHandler) AdminUndeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	target, ok := requireEntity(w, r, h.renderer, "user", id,
		func(id int64) (store.User, error) { return h.queries.GetUserByID(r.Context(), id) })
	if !ok {
		return
	}
	if !target.IsDeleted() {
		flashInfo(w, r, h.renderer, redirectAdmin, "User is not deleted")
		return
	}

	if err := h.queries.UndeleteUser(r.Context(), target.ID); err != nil {
		internalError(w, r, h.renderer, "restoring user failed", "error", err, "user_id", target.ID)
		return
	}
	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo,
		"User restored", middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"target_id": target.ID})
	flashSuccess(w, r, h.renderer, redirectAdmin, "User restored")
}
