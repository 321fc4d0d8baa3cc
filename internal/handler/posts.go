// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/blogo/internal/cache"
	"github.com/olegiv/blogo/internal/middleware"
	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/render"
	"github.com/olegiv/blogo/internal/service"
	"github.com/olegiv/blogo/internal/storage"
	"github.com/olegiv/blogo/internal/store"
	"github.com/olegiv/blogo/internal/util"
)

// PostHandler handles blog post CRUD and the post page with its
// comment thread.
type PostHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	eventService *service.EventService
	roles        *cache.RoleCache
	uploads      *storage.UploadStore
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(db *sql.DB, renderer *render.Renderer, roles *cache.RoleCache, uploads *storage.UploadStore) *PostHandler {
	return &PostHandler{
		queries:      store.New(db),
		renderer:     renderer,
		eventService: service.NewEventService(db),
		roles:        roles,
		uploads:      uploads,
	}
}

// NewPostForm renders the post composition page.
func (h *PostHandler) NewPostForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, "blog/post_form", render.TemplateData{
		Title: "New Post",
		User:  middleware.GetUser(r),
		Data:  map[string]any{"Action": "/post/new"},
	})
}

// CreatePost handles the post composition form, including the optional
// header image upload.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if !parsePostForm(w, r, h.renderer, "/post/new") {
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	body := strings.TrimSpace(r.FormValue("body"))
	if msg := validatePost(title, body); msg != "" {
		flashError(w, r, h.renderer, "/post/new", msg)
		return
	}

	imageFile, ok := h.saveUpload(w, r, "/post/new")
	if !ok {
		return
	}

	now := time.Now().UTC()
	post, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		Title:     title,
		Slug:      util.Slugify(title),
		Body:      body,
		ImageFile: imageFile,
		AuthorID:  user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		internalError(w, r, h.renderer, "creating post failed", "error", err)
		return
	}

	_ = h.eventService.LogPostEvent(r.Context(), model.EventLevelInfo,
		"Post created", &user.ID, middleware.GetClientIP(r),
		map[string]any{"post_id": post.ID, "title": post.Title})
	flashSuccess(w, r, h.renderer, postURL(post.ID), "Your post has been published")
}

// ShowPost renders a post with its visible comments.
func (h *PostHandler) ShowPost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	post, ok := requireEntity(w, r, h.renderer, "post", id,
		func(id int64) (store.Post, error) { return h.queries.GetPostByID(r.Context(), id) })
	if !ok {
		return
	}

	author, err := h.queries.GetUserByID(r.Context(), post.AuthorID)
	if err != nil {
		internalError(w, r, h.renderer, "loading post author failed", "error", err, "post_id", post.ID)
		return
	}

	commentCount, err := h.queries.CountVisibleComments(r.Context(), post.ID)
	if err != nil {
		internalError(w, r, h.renderer, "counting comments failed", "error", err, "post_id", post.ID)
		return
	}
	pagination := BuildPagination(pageParam(r), commentCount, CommentsPerPage, postURL(post.ID), r.URL.Query())
	comments, err := h.queries.ListVisibleComments(r.Context(), store.ListVisibleCommentsParams{
		PostID: post.ID,
		Limit:  int64(CommentsPerPage),
		Offset: pagination.Offset(),
	})
	if err != nil {
		internalError(w, r, h.renderer, "listing comments failed", "error", err, "post_id", post.ID)
		return
	}

	commentAuthors, err := h.commentAuthors(r, comments)
	if err != nil {
		internalError(w, r, h.renderer, "loading comment authors failed", "error", err, "post_id", post.ID)
		return
	}

	renderPage(w, r, h.renderer, "blog/post", render.TemplateData{
		Title: post.Title,
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Post":           post,
			"Author":         author,
			"Comments":       comments,
			"CommentAuthors": commentAuthors,
			"CommentCount":   commentCount,
			"Pagination":     pagination,
			"CanModify":      middleware.CanModifyPost(r, h.roles, &post),
			"CanComment":     middleware.Can(r, h.roles, model.PermComment),
			"CanModerate":    middleware.Can(r, h.roles, model.PermModerate),
		},
	})
}

// commentAuthors resolves the distinct authors of a comment page.
func (h *PostHandler) commentAuthors(r *http.Request, comments []store.Comment) (map[int64]store.User, error) {
	authors := make(map[int64]store.User, len(comments))
	for _, c := range comments {
		if _, seen := authors[c.AuthorID]; seen {
			continue
		}
		author, err := h.queries.GetUserByID(r.Context(), c.AuthorID)
		if err != nil {
			return nil, err
		}
		authors[c.AuthorID] = author
	}
	return authors, nil
}

// EditPostForm renders the editing page. Only the author or an
// administrator may edit.
func (h *PostHandler) EditPostForm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	post, ok := requireEntity(w, r, h.renderer, "post", id,
		func(id int64) (store.Post, error) { return h.queries.GetPostByID(r.Context(), id) })
	if !ok {
		return
	}
	if !middleware.CanModifyPost(r, h.roles, &post) {
		forbidden(w, r, h.renderer)
		return
	}

	renderPage(w, r, h.renderer, "blog/post_form", render.TemplateData{
		Title: "Edit Post",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Post":   post,
			"Action": postURL(post.ID) + "/edit",
		},
	})
}

// UpdatePost applies an edit. Only the author or an administrator may
// edit; everyone else gets 403.
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	post, ok := requireEntity(w, r, h.renderer, "post", id,
		func(id int64) (store.Post, error) { return h.queries.GetPostByID(r.Context(), id) })
	if !ok {
		return
	}
	if !middleware.CanModifyPost(r, h.roles, &post) {
		forbidden(w, r, h.renderer)
		return
	}

	editURL := postURL(post.ID) + "/edit"
	if !parsePostForm(w, r, h.renderer, editURL) {
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	body := strings.TrimSpace(r.FormValue("body"))
	if msg := validatePost(title, body); msg != "" {
		flashError(w, r, h.renderer, editURL, msg)
		return
	}

	imageFile := post.ImageFile
	if newImage, ok := h.saveUpload(w, r, editURL); !ok {
		return
	} else if newImage.Valid {
		if post.ImageFile.Valid {
			if err := h.uploads.Remove(post.ImageFile.String); err != nil {
				slog.Error("removing old image failed", "error", err, "file", post.ImageFile.String)
			}
		}
		imageFile = newImage
	}

	updated, err := h.queries.UpdatePost(r.Context(), store.UpdatePostParams{
		ID:        post.ID,
		Title:     title,
		Slug:      util.Slugify(title),
		Body:      body,
		ImageFile: imageFile,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		internalError(w, r, h.renderer, "updating post failed", "error", err, "post_id", post.ID)
		return
	}

	_ = h.eventService.LogPostEvent(r.Context(), model.EventLevelInfo,
		"Post updated", middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"post_id": updated.ID})
	flashSuccess(w, r, h.renderer, postURL(updated.ID), "Your post has been updated")
}

// DeletePost removes a post. Comments cascade with the row; the stored
// image is removed afterwards.
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		notFound(w, r, h.renderer)
		return
	}
	post, ok := requireEntity(w, r, h.renderer, "post", id,
		func(id int64) (store.Post, error) { return h.queries.GetPostByID(r.Context(), id) })
	if !ok {
		return
	}
	if !middleware.CanModifyPost(r, h.roles, &post) {
		forbidden(w, r, h.renderer)
		return
	}

	if err := h.queries.DeletePost(r.Context(), post.ID); err != nil {
		internalError(w, r, h.renderer, "deleting post failed", "error", err, "post_id", post.ID)
		return
	}
	if post.ImageFile.Valid {
		if err := h.uploads.Remove(post.ImageFile.String); err != nil {
			slog.Error("removing post image failed", "error", err, "file", post.ImageFile.String)
		}
	}

	_ = h.eventService.LogPostEvent(r.Context(), model.EventLevelInfo,
		"Post deleted", middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"post_id": post.ID, "title": post.Title})
	flashSuccess(w, r, h.renderer, redirectHome, "The post has been deleted")
}

// parsePostForm accepts both multipart submissions (with an image) and
// plain form posts.
func parsePostForm(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, errURL string) bool {
	err := r.ParseMultipartForm(MaxUploadBytes)
	if err != nil && err != http.ErrNotMultipart {
		flashError(w, r, renderer, errURL, "Invalid form data")
		return false
	}
	return true
}

// saveUpload stores an optional "image" form file. Returns the stored
// reference (invalid when no file was sent) and false when the request
// has already been answered with an error.
func (h *PostHandler) saveUpload(w http.ResponseWriter, r *http.Request, errURL string) (sql.NullString, bool) {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile || err == http.ErrNotMultipart {
		return sql.NullString{}, true
	}
	if err != nil {
		flashError(w, r, h.renderer, errURL, "Invalid image upload")
		return sql.NullString{}, false
	}
	defer func() { _ = file.Close() }()

	name, err := h.uploads.Save(file, header.Filename)
	if err != nil {
		slog.Warn("image upload rejected", "error", err, "filename", header.Filename)
		flashError(w, r, h.renderer, errURL, "The uploaded file is not a supported image")
		return sql.NullString{}, false
	}
	return util.NullStringFromValue(name), true
}

// validatePost returns an error message, or "" when the input is
// acceptable.
func validatePost(title, body string) string {
	switch {
	case title == "" || body == "":
		return "Title and body are required"
	case len(title) > MaxPostTitleLen:
		return "Title is too long"
	}
	return ""
}

// postURL returns the canonical path of a post.
func postURL(id int64) string {
	return "/post/" + formatID(id)
}
