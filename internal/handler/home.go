// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	netmail "net/mail"
	"net/http"
	"strings"

	"github.com/olegiv/blogo/internal/cache"
	"github.com/olegiv/blogo/internal/mail"
	"github.com/olegiv/blogo/internal/middleware"
	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/render"
	"github.com/olegiv/blogo/internal/store"
)

// HomeHandler serves the post feed and the contact form.
type HomeHandler struct {
	queries    *store.Queries
	renderer   *render.Renderer
	roles      *cache.RoleCache
	mailer     mail.Mailer
	adminEmail string
	perPage    int
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(db *sql.DB, renderer *render.Renderer, roles *cache.RoleCache, mailer mail.Mailer, adminEmail string, perPage int) *HomeHandler {
	if perPage <= 0 {
		perPage = PostsPerPage
	}
	return &HomeHandler{
		queries:    store.New(db),
		renderer:   renderer,
		roles:      roles,
		mailer:     mailer,
		adminEmail: adminEmail,
		perPage:    perPage,
	}
}

// Home renders the paginated post feed.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	count, err := h.queries.CountPosts(r.Context())
	if err != nil {
		internalError(w, r, h.renderer, "counting posts failed", "error", err)
		return
	}
	pagination := BuildPagination(pageParam(r), count, h.perPage, redirectHome, r.URL.Query())
	posts, err := h.queries.ListPosts(r.Context(), store.ListPostsParams{
		Limit:  int64(h.perPage),
		Offset: pagination.Offset(),
	})
	if err != nil {
		internalError(w, r, h.renderer, "listing posts failed", "error", err)
		return
	}

	authors := make(map[int64]store.User, len(posts))
	for _, p := range posts {
		if _, seen := authors[p.AuthorID]; seen {
			continue
		}
		author, aerr := h.queries.GetUserByID(r.Context(), p.AuthorID)
		if aerr != nil {
			internalError(w, r, h.renderer, "loading post author failed", "error", aerr, "post_id", p.ID)
			return
		}
		authors[p.AuthorID] = author
	}

	renderPage(w, r, h.renderer, "blog/index", render.TemplateData{
		Title: "Home",
		User:  middleware.GetUser(r),
		Data: map[string]any{
			"Posts":      posts,
			"Authors":    authors,
			"Pagination": pagination,
			"CanWrite":   middleware.Can(r, h.roles, model.PermWrite),
		},
	})
}

// ContactForm renders the contact page.
func (h *HomeHandler) ContactForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, "blog/contact", render.TemplateData{
		Title: "Contact",
		User:  middleware.GetUser(r),
	})
}

// Contact sends the visitor's message to the site administrator. Mail
// failure is logged; the visitor still gets a neutral acknowledgement.
func (h *HomeHandler) Contact(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteContact) {
		return
	}

	from := strings.TrimSpace(r.FormValue("email"))
	subject := strings.TrimSpace(r.FormValue("subject"))
	body := strings.TrimSpace(r.FormValue("body"))
	if from == "" || subject == "" || body == "" {
		flashError(w, r, h.renderer, RouteContact, "Email, subject and message are required")
		return
	}
	if _, err := netmail.ParseAddress(from); err != nil {
		flashError(w, r, h.renderer, RouteContact, "Invalid email address")
		return
	}
	if h.adminEmail == "" {
		slog.Warn("contact form submitted but no admin email is configured")
		flashSuccess(w, r, h.renderer, redirectHome, "Thanks, your message has been sent")
		return
	}

	msg := mail.Message{
		To:       h.adminEmail,
		Subject:  "[Contact] " + subject,
		TextBody: "From: " + from + "\n\n" + body,
	}
	if err := h.mailer.Send(r.Context(), msg); err != nil {
		slog.Error("sending contact mail failed", "error", err)
	}
	flashSuccess(w, r, h.renderer, redirectHome, "Thanks, your message has been sent")
}
