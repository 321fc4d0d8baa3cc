// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogo/internal/render"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) for POST/PUT/DELETE redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message, messageType string) {
	renderer.SetFlash(r, message, messageType)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError sets an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, flashErrorType)
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, flashSuccessType)
}

// flashInfo sets an informational flash message and redirects.
func flashInfo(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, flashInfoType)
}

// parseFormOrRedirect parses the request form and redirects with an error
// message on failure. Returns true if parsing succeeded.
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, renderer, redirectURL, "Invalid form data")
		return false
	}
	return true
}

// idParam extracts the {id} route parameter as an int64.
func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// parseInt64 parses a decimal form value.
func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// formatID renders an int64 identifier for URLs.
func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// pageParam extracts the ?page query parameter, defaulting to 1.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// renderError renders one of the error pages, falling back to a plain
// http.Error if the template itself fails.
func renderError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int) {
	var name, title string
	switch status {
	case http.StatusNotFound:
		name, title = "errors/404", "Page Not Found"
	case http.StatusForbidden:
		name, title = "errors/403", "Forbidden"
	default:
		status = http.StatusInternalServerError
		name, title = "errors/500", "Internal Server Error"
	}

	w.WriteHeader(status)
	if err := renderer.Render(w, r, name, render.TemplateData{Title: title}); err != nil {
		slog.Error("rendering error page failed", "template", name, "error", err)
		http.Error(w, title, status)
	}
}

// notFound renders the 404 page.
func notFound(w http.ResponseWriter, r *http.Request, renderer *render.Renderer) {
	renderError(w, r, renderer, http.StatusNotFound)
}

// forbidden renders the 403 page.
func forbidden(w http.ResponseWriter, r *http.Request, renderer *render.Renderer) {
	renderError(w, r, renderer, http.StatusForbidden)
}

// internalError logs the error and renders the 500 page.
func internalError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	renderError(w, r, renderer, http.StatusInternalServerError)
}

// requireEntity fetches an entity by ID using the provided query
// function. sql.ErrNoRows renders the 404 page; other errors render the
// 500 page. Returns the entity and true on success.
func requireEntity[T any](
	w http.ResponseWriter,
	r *http.Request,
	renderer *render.Renderer,
	entityName string,
	id int64,
	queryFn func(id int64) (T, error),
) (T, bool) {
	var zero T
	entity, err := queryFn(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			notFound(w, r, renderer)
		} else {
			internalError(w, r, renderer, "failed to get "+entityName, "error", err, entityName+"_id", id)
		}
		return zero, false
	}
	return entity, true
}

// renderPage renders a page template, logging and answering 500 on failure.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, name string, data render.TemplateData) {
	if err := renderer.Render(w, r, name, data); err != nil {
		slog.Error("rendering page failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
