// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/blogo/internal/seo"
	"github.com/olegiv/blogo/internal/store"
)

// SEOHandler serves robots.txt, sitemap.xml and security.txt.
type SEOHandler struct {
	queries      *store.Queries
	baseURL      string
	contactEmail string
}

// NewSEOHandler creates a new SEOHandler. contactEmail may be empty, in
// which case security.txt is not served.
func NewSEOHandler(db *sql.DB, baseURL, contactEmail string) *SEOHandler {
	return &SEOHandler{
		queries:      store.New(db),
		baseURL:      baseURL,
		contactEmail: contactEmail,
	}
}

// Robots serves robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	content := seo.GenerateRobots(h.baseURL, false, "")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(content))
}

// Sitemap serves sitemap.xml covering the front page, all posts and all
// active user profiles.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	postRows, err := h.queries.ListAllPosts(ctx)
	if err != nil {
		slog.Error("sitemap: listing posts failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	userRows, err := h.queries.ListAllActiveUsers(ctx)
	if err != nil {
		slog.Error("sitemap: listing users failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	posts := make([]seo.SitemapPost, 0, len(postRows))
	for _, p := range postRows {
		posts = append(posts, seo.SitemapPost{ID: p.ID, UpdatedAt: p.UpdatedAt})
	}
	profiles := make([]seo.SitemapProfile, 0, len(userRows))
	for _, u := range userRows {
		profiles = append(profiles, seo.SitemapProfile{Username: u.Username})
	}

	out, err := seo.GenerateSitemap(h.baseURL, posts, profiles)
	if err != nil {
		slog.Error("sitemap: building XML failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(out)
}

// SecurityTxt serves /.well-known/security.txt when a contact address is
// configured.
func (h *SEOHandler) SecurityTxt(w http.ResponseWriter, r *http.Request) {
	if h.contactEmail == "" {
		http.NotFound(w, r)
		return
	}
	content := seo.GenerateSecurityTxt("mailto:"+h.contactEmail, time.Now().AddDate(1, 0, 0))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(content))
}
