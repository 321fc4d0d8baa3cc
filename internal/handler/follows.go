// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogo/internal/middleware"
	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/render"
	"github.com/olegiv/blogo/internal/service"
	"github.com/olegiv/blogo/internal/store"
)

// FollowHandler handles the directed follow graph.
type FollowHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	eventService *service.EventService
	perPage      int
}

// NewFollowHandler creates a new FollowHandler.
func NewFollowHandler(db *sql.DB, renderer *render.Renderer, perPage int) *FollowHandler {
	if perPage <= 0 {
		perPage = FollowersPerPage
	}
	return &FollowHandler{
		queries:      store.New(db),
		renderer:     renderer,
		eventService: service.NewEventService(db),
		perPage:      perPage,
	}
}

// targetUser resolves the {username} route parameter to an active
// account. Soft-deleted users are not followable.
func (h *FollowHandler) targetUser(w http.ResponseWriter, r *http.Request) (store.User, bool) {
	username := chi.URLParam(r, "username")
	user, err := h.queries.GetUserByUsername(r.Context(), username)
	if err != nil || user.IsDeleted() {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			internalError(w, r, h.renderer, "loading user failed", "error", err, "username", username)
			return store.User{}, false
		}
		notFound(w, r, h.renderer)
		return store.User{}, false
	}
	return user, true
}

// Follow creates a follow edge from the logged-in user to the target.
// Following an already-followed user reports the existing state.
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	follower := middleware.GetUser(r)
	target, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	profile := "/user/" + target.Username

	if follower.ID == target.ID {
		flashError(w, r, h.renderer, profile, "You cannot follow yourself")
		return
	}

	err := h.queries.CreateFollow(r.Context(), store.CreateFollowParams{
		FollowerID: follower.ID,
		FollowedID: target.ID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		// A concurrent duplicate is the same outcome as a repeat click.
		if store.IsUniqueViolation(err) {
			flashInfo(w, r, h.renderer, profile, "You are already following "+target.Username)
			return
		}
		internalError(w, r, h.renderer, "creating follow failed", "error", err)
		return
	}

	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo,
		"User followed", &follower.ID, middleware.GetClientIP(r),
		map[string]any{"followed_id": target.ID})
	flashSuccess(w, r, h.renderer, profile, "You are now following "+target.Username)
}

// Unfollow removes the follow edge. Unfollowing someone not followed
// reports that state instead of failing.
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	follower := middleware.GetUser(r)
	target, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	profile := "/user/" + target.Username

	removed, err := h.queries.DeleteFollow(r.Context(), follower.ID, target.ID)
	if err != nil {
		internalError(w, r, h.renderer, "removing follow failed", "error", err)
		return
	}
	if !removed {
		flashInfo(w, r, h.renderer, profile, "You are not following "+target.Username)
		return
	}

	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo,
		"User unfollowed", &follower.ID, middleware.GetClientIP(r),
		map[string]any{"followed_id": target.ID})
	flashSuccess(w, r, h.renderer, profile, "You are no longer following "+target.Username)
}

// Followers lists the users following the target.
func (h *FollowHandler) Followers(w http.ResponseWriter, r *http.Request) {
	h.listEdges(w, r, "Followers of", "/followers",
		h.queries.CountFollowers, h.queries.ListFollowers)
}

// Following lists the users the target follows.
func (h *FollowHandler) Following(w http.ResponseWriter, r *http.Request) {
	h.listEdges(w, r, "Followed by", "/following",
		h.queries.CountFollowing, h.queries.ListFollowing)
}

func (h *FollowHandler) listEdges(
	w http.ResponseWriter,
	r *http.Request,
	titlePrefix, suffix string,
	count func(ctx context.Context, userID int64) (int64, error),
	list func(ctx context.Context, arg store.ListFollowersParams) ([]store.User, error),
) {
	target, ok := h.targetUser(w, r)
	if !ok {
		return
	}

	total, err := count(r.Context(), target.ID)
	if err != nil {
		internalError(w, r, h.renderer, "counting follow edges failed", "error", err, "user_id", target.ID)
		return
	}
	base := "/user/" + target.Username + suffix
	pagination := BuildPagination(pageParam(r), total, h.perPage, base, r.URL.Query())
	users, err := list(r.Context(), store.ListFollowersParams{
		UserID: target.ID,
		Limit:  int64(h.perPage),
		Offset: pagination.Offset(),
	})
	if err != nil {
		internalError(w, r, h.renderer, "listing follow edges failed", "error", err, "user_id", target.ID)
		return
	}

	renderPage(w, r, h.renderer, "blog/follows", render.TemplateData{
		Title: titlePrefix + " " + target.Username,
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Profile":    target,
			"Users":      users,
			"Pagination": pagination,
		},
	})
}
