// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/blogo/internal/cache"
	"github.com/olegiv/blogo/internal/middleware"
	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/render"
	"github.com/olegiv/blogo/internal/service"
	"github.com/olegiv/blogo/internal/store"
)

// CommentHandler handles comment creation and moderation.
type CommentHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	eventService *service.EventService
	roles        *cache.RoleCache
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(db *sql.DB, renderer *render.Renderer, roles *cache.RoleCache) *CommentHandler {
	return &CommentHandler{
		queries:      store.New(db),
		renderer:     renderer,
		eventService: service.NewEventService(db),
		roles:        roles,
	}
}

// CreateComment adds a comment to the post named in the route.
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	postID, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	post, ok := requireEntity(w, r, h.renderer, "post", postID,
		func(id int64) (store.Post, error) { return h.queries.GetPostByID(r.Context(), id) })
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, postURL(post.ID)) {
		return
	}

	body := strings.TrimSpace(r.FormValue("body"))
	if body == "" {
		flashError(w, r, h.renderer, postURL(post.ID), "Comment cannot be empty")
		return
	}
	if len(body) > MaxCommentLength {
		flashError(w, r, h.renderer, postURL(post.ID),
			fmt.Sprintf("Comments are limited to %d characters", MaxCommentLength))
		return
	}

	comment, err := h.queries.CreateComment(r.Context(), store.CreateCommentParams{
		Body:      body,
		AuthorID:  user.ID,
		PostID:    post.ID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		internalError(w, r, h.renderer, "creating comment failed", "error", err, "post_id", post.ID)
		return
	}

	_ = h.eventService.LogCommentEvent(r.Context(), model.EventLevelInfo,
		"Comment posted", &user.ID, middleware.GetClientIP(r),
		map[string]any{"comment_id": comment.ID, "post_id": post.ID})
	flashSuccess(w, r, h.renderer, postURL(post.ID), "Your comment has been published")
}

// Moderate lists all comments, disabled included, for moderators.
func (h *CommentHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	count, err := h.queries.CountComments(r.Context())
	if err != nil {
		internalError(w, r, h.renderer, "counting comments failed", "error", err)
		return
	}
	pagination := BuildPagination(pageParam(r), count, CommentsPerPage, "/moderate", r.URL.Query())
	comments, err := h.queries.ListComments(r.Context(), store.ListCommentsParams{
		Limit:  int64(CommentsPerPage),
		Offset: pagination.Offset(),
	})
	if err != nil {
		internalError(w, r, h.renderer, "listing comments failed", "error", err)
		return
	}

	authors := make(map[int64]store.User, len(comments))
	for _, c := range comments {
		if _, seen := authors[c.AuthorID]; seen {
			continue
		}
		author, aerr := h.queries.GetUserByID(r.Context(), c.AuthorID)
		if aerr != nil {
			internalError(w, r, h.renderer, "loading comment author failed", "error", aerr)
			return
		}
		authors[c.AuthorID] = author
	}

	renderPage(w, r, h.renderer, "admin/moderate", render.TemplateData{
		Title: "Moderate Comments",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Comments":   comments,
			"Authors":    authors,
			"Pagination": pagination,
		},
	})
}

// DisableComment hides a comment from listings. Disabling an already
// disabled comment reports its current state instead of failing.
func (h *CommentHandler) DisableComment(w http.ResponseWriter, r *http.Request) {
	h.setDisabled(w, r, true)
}

// EnableComment restores a hidden comment. Idempotent like disable.
func (h *CommentHandler) EnableComment(w http.ResponseWriter, r *http.Request) {
	h.setDisabled(w, r, false)
}

func (h *CommentHandler) setDisabled(w http.ResponseWriter, r *http.Request, disabled bool) {
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	comment, ok := requireEntity(w, r, h.renderer, "comment", id,
		func(id int64) (store.Comment, error) { return h.queries.GetCommentByID(r.Context(), id) })
	if !ok {
		return
	}

	back := backURL(r, postURL(comment.PostID))
	if comment.Disabled == disabled {
		state := "enabled"
		if disabled {
			state = "disabled"
		}
		flashInfo(w, r, h.renderer, back, "Comment is already "+state)
		return
	}

	if err := h.queries.SetCommentDisabled(r.Context(), comment.ID, disabled); err != nil {
		internalError(w, r, h.renderer, "moderating comment failed", "error", err, "comment_id", comment.ID)
		return
	}

	action, msg := "Comment enabled", "Comment restored"
	if disabled {
		action, msg = "Comment disabled", "Comment hidden"
	}
	_ = h.eventService.LogCommentEvent(r.Context(), model.EventLevelInfo,
		action, middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"comment_id": comment.ID, "post_id": comment.PostID})
	flashSuccess(w, r, h.renderer, back, msg)
}

// EditCommentForm renders the moderator comment editing page.
func (h *CommentHandler) EditCommentForm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	comment, ok := requireEntity(w, r, h.renderer, "comment", id,
		func(id int64) (store.Comment, error) { return h.queries.GetCommentByID(r.Context(), id) })
	if !ok {
		return
	}

	renderPage(w, r, h.renderer, "admin/comment_edit", render.TemplateData{
		Title: "Edit Comment",
		User:  middleware.GetUser(r),
		Data:  map[string]any{"Comment": comment},
	})
}

// EditComment applies a moderator's edit to a comment body.
func (h *CommentHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	comment, ok := requireEntity(w, r, h.renderer, "comment", id,
		func(id int64) (store.Comment, error) { return h.queries.GetCommentByID(r.Context(), id) })
	if !ok {
		return
	}

	editURL := fmt.Sprintf("/comment/%d/edit", comment.ID)
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	body := strings.TrimSpace(r.FormValue("body"))
	if body == "" {
		flashError(w, r, h.renderer, editURL, "Comment cannot be empty")
		return
	}
	if len(body) > MaxCommentLength {
		flashError(w, r, h.renderer, editURL,
			fmt.Sprintf("Comments are limited to %d characters", MaxCommentLength))
		return
	}

	updated, err := h.queries.UpdateCommentBody(r.Context(), comment.ID, body)
	if err != nil {
		internalError(w, r, h.renderer, "updating comment failed", "error", err, "comment_id", comment.ID)
		return
	}

	_ = h.eventService.LogCommentEvent(r.Context(), model.EventLevelInfo,
		"Comment edited by moderator", middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"comment_id": updated.ID, "post_id": updated.PostID})
	flashSuccess(w, r, h.renderer, postURL(updated.PostID), "Comment updated")
}

// backURL returns a safe same-site redirect target from the "back" form
// value, falling back to the given default.
func backURL(r *http.Request, fallback string) string {
	back := r.FormValue("back")
	if back == "" || !strings.HasPrefix(back, "/") || strings.HasPrefix(back, "//") {
		return fallback
	}
	return back
}
