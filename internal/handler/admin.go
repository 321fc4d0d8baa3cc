// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"

	"github.com/olegiv/blogo/internal/middleware"
	"github.com/olegiv/blogo/internal/render"
	"github.com/olegiv/blogo/internal/store"
)

// adminEventsLimit caps the audit log page.
const adminEventsLimit = 100

// AdminHandler serves the audit event log.
type AdminHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer) *AdminHandler {
	return &AdminHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// Events lists the most recent audit events.
func (h *AdminHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.queries.ListRecentEvents(r.Context(), adminEventsLimit)
	if err != nil {
		internalError(w, r, h.renderer, "listing events failed", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "admin/events", render.TemplateData{
		Title: "Event Log",
		User:  middleware.GetUser(r),
		Data:  map[string]any{"Events": events},
	})
}
