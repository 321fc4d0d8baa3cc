// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogo/internal/auth"
	"github.com/olegiv/blogo/internal/mail"
	"github.com/olegiv/blogo/internal/middleware"
	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/render"
	"github.com/olegiv/blogo/internal/service"
	"github.com/olegiv/blogo/internal/store"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// AuthHandler handles registration, login, confirmation and password
// recovery.
type AuthHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
	tokens          *auth.TokenIssuer
	mailer          mail.Mailer
	baseURL         string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager,
	lp *middleware.LoginProtection, tokens *auth.TokenIssuer, mailer mail.Mailer, baseURL string) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		eventService:    service.NewEventService(db),
		loginProtection: lp,
		tokens:          tokens,
		mailer:          mailer,
		baseURL:         baseURL,
	}
}

// LoginForm renders the login page. Authenticated users are sent home.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID) > 0 {
		http.Redirect(w, r, redirectHome, http.StatusSeeOther)
		return
	}
	renderPage(w, r, h.renderer, "auth/login", render.TemplateData{Title: "Log In"})
}

// Login handles the login form submission. The login field accepts a
// username or an email address.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	login := strings.TrimSpace(r.FormValue("login"))
	password := r.FormValue("password")
	remember := r.FormValue("remember") != ""
	clientIP := middleware.GetClientIP(r)

	if login == "" || password == "" {
		flashError(w, r, h.renderer, redirectLogin, "Login and password are required")
		return
	}

	if locked, remaining := h.loginProtection.IsAccountLocked(login); locked {
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning,
			"Login attempt on locked account", nil, clientIP, map[string]any{"login": login})
		flashError(w, r, h.renderer, redirectLogin,
			fmt.Sprintf("Account temporarily locked. Try again in %s", formatDuration(remaining)))
		return
	}

	user, err := h.queries.GetUserByLogin(r.Context(), login)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("database error during login", "error", err)
		}
		h.failLogin(w, r, login, clientIP, nil)
		return
	}

	if user.IsDeleted() {
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning,
			"Login attempt on deleted account", &user.ID, clientIP, nil)
		h.failLogin(w, r, login, clientIP, &user.ID)
		return
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("password verification error", "error", err, "user_id", user.ID)
		flashError(w, r, h.renderer, redirectLogin, "Invalid login or password")
		return
	}
	if !ok {
		h.failLogin(w, r, login, clientIP, &user.ID)
		return
	}

	h.loginProtection.RecordSuccessfulLogin(login)

	// Rotate the session token on privilege change.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("session renew failed", "error", err)
		flashError(w, r, h.renderer, redirectLogin, "Login failed, please try again")
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)
	h.sessionManager.RememberMe(r.Context(), remember)

	if err := h.queries.UpdateLastSeen(r.Context(), user.ID, time.Now().UTC()); err != nil {
		slog.Error("updating last_seen failed", "error", err, "user_id", user.ID)
	}

	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo,
		"User logged in", &user.ID, clientIP, map[string]any{"remember": remember})

	next := r.FormValue("next")
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = redirectHome
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// failLogin records a failed attempt and answers with the appropriate
// flash. Unknown accounts are indistinguishable from wrong passwords.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, login, clientIP string, userID *int64) {
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning,
		"Login failed", userID, clientIP, map[string]any{"login": login})

	if locked, lockDuration := h.loginProtection.RecordFailedAttempt(login); locked {
		flashError(w, r, h.renderer, redirectLogin,
			fmt.Sprintf("Too many failed attempts. Account locked for %s", formatDuration(lockDuration)))
		return
	}
	if remaining := h.loginProtection.GetRemainingAttempts(login); remaining > 0 && remaining <= 3 {
		flashError(w, r, h.renderer, redirectLogin,
			fmt.Sprintf("Invalid login or password. %d attempts remaining", remaining))
		return
	}
	flashError(w, r, h.renderer, redirectLogin, "Invalid login or password")
}

// Logout destroys the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDPtr(r)
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo,
		"User logged out", userID, middleware.GetClientIP(r), nil)
	flashInfo(w, r, h.renderer, redirectHome, "You have been logged out")
}

// RegisterForm renders the registration page.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID) > 0 {
		http.Redirect(w, r, redirectHome, http.StatusSeeOther)
		return
	}
	renderPage(w, r, h.renderer, "auth/register", render.TemplateData{Title: "Register"})
}

// Register handles the registration form. New accounts get the default
// role and a confirmation link by mail.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectRegister) {
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	password2 := r.FormValue("password2")
	firstName := strings.TrimSpace(r.FormValue("first_name"))
	lastName := strings.TrimSpace(r.FormValue("last_name"))
	newsletter := r.FormValue("news_letter") != ""

	if msg := validateRegistration(username, email, password, password2); msg != "" {
		flashError(w, r, h.renderer, redirectRegister, msg)
		return
	}

	role, err := h.queries.GetDefaultRole(r.Context())
	if err != nil {
		internalError(w, r, h.renderer, "no default role configured", "error", err)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		internalError(w, r, h.renderer, "password hashing failed", "error", err)
		return
	}

	now := time.Now().UTC()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		NewsLetter:   newsletter,
		RoleID:       role.ID,
		MemberSince:  now,
		LastSeen:     now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			flashError(w, r, h.renderer, redirectRegister, "Username or email is already registered")
			return
		}
		internalError(w, r, h.renderer, "creating user failed", "error", err)
		return
	}

	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo,
		"User registered", &user.ID, middleware.GetClientIP(r), map[string]any{"username": username})

	h.sendConfirmation(r.Context(), user)
	flashSuccess(w, r, h.renderer, redirectLogin,
		"Account created. A confirmation link has been sent to your email")
}

// validateRegistration returns an error message, or "" when the input
// is acceptable.
func validateRegistration(username, email, password, password2 string) string {
	switch {
	case username == "" || email == "" || password == "":
		return "Username, email and password are required"
	case len(username) > 64:
		return "Username is too long"
	case password != password2:
		return "Passwords do not match"
	case len(password) < MinPasswordLength:
		return fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	}
	if _, err := netmail.ParseAddress(email); err != nil {
		return "Invalid email address"
	}
	return ""
}

// sendConfirmation issues a confirm token and mails the link. Mail
// failures are logged and never fail the surrounding operation.
func (h *AuthHandler) sendConfirmation(ctx context.Context, user store.User) {
	token, err := h.tokens.Generate(user.ID, auth.PurposeConfirm, auth.ConfirmTokenTTL)
	if err != nil {
		slog.Error("generating confirm token failed", "error", err, "user_id", user.ID)
		return
	}
	if err := h.mailer.Send(ctx, mail.ConfirmMessage(h.baseURL, user, token)); err != nil {
		slog.Error("sending confirmation mail failed", "error", err, "user_id", user.ID)
	}
}

// Confirm validates the emailed confirmation token for the logged-in
// user and marks the account confirmed.
func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}
	if user.Confirmed {
		flashInfo(w, r, h.renderer, redirectHome, "Your account is already confirmed")
		return
	}

	token := chi.URLParam(r, "token")
	if !h.tokens.Check(token, auth.PurposeConfirm, user.ID) {
		flashError(w, r, h.renderer, redirectHome,
			"The confirmation link is invalid or has expired")
		return
	}

	if err := h.queries.ConfirmUser(r.Context(), user.ID); err != nil {
		internalError(w, r, h.renderer, "confirming user failed", "error", err, "user_id", user.ID)
		return
	}
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo,
		"Account confirmed", &user.ID, middleware.GetClientIP(r), nil)
	flashSuccess(w, r, h.renderer, redirectHome, "Thanks! Your account is confirmed")
}

// ResendConfirmation mails a fresh confirmation link to the logged-in
// user.
func (h *AuthHandler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}
	if user.Confirmed {
		flashInfo(w, r, h.renderer, redirectHome, "Your account is already confirmed")
		return
	}
	h.sendConfirmation(r.Context(), *user)
	flashSuccess(w, r, h.renderer, redirectHome, "A new confirmation link has been sent to your email")
}

// RecoverForm renders the password recovery request page.
func (h *AuthHandler) RecoverForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, "auth/recover", render.TemplateData{Title: "Reset Your Password"})
}

// Recover mails a reset link when the address belongs to an account.
// The response never reveals whether the address is registered.
func (h *AuthHandler) Recover(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectRecover) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	if email != "" {
		user, err := h.queries.GetUserByEmail(r.Context(), email)
		switch {
		case err == nil && !user.IsDeleted():
			token, terr := h.tokens.Generate(user.ID, auth.PurposeReset, auth.ResetTokenTTL)
			if terr != nil {
				slog.Error("generating reset token failed", "error", terr, "user_id", user.ID)
				break
			}
			if merr := h.mailer.Send(r.Context(), mail.ResetMessage(h.baseURL, user, token)); merr != nil {
				slog.Error("sending reset mail failed", "error", merr, "user_id", user.ID)
			}
			_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo,
				"Password reset requested", &user.ID, middleware.GetClientIP(r), nil)
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			slog.Error("database error during recovery", "error", err)
		}
	}

	flashInfo(w, r, h.renderer, redirectLogin,
		"If that address is registered, reset instructions have been sent")
}

// ResetForm renders the password reset page for an emailed token.
func (h *AuthHandler) ResetForm(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if _, ok := h.tokens.Extract(token, auth.PurposeReset); !ok {
		flashError(w, r, h.renderer, redirectRecover, "The reset link is invalid or has expired")
		return
	}
	renderPage(w, r, h.renderer, "auth/reset", render.TemplateData{
		Title: "Choose a New Password",
		Data:  map[string]any{"Token": token},
	})
}

// Reset sets a new password for the user identified by the token.
func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	userID, ok := h.tokens.Extract(token, auth.PurposeReset)
	if !ok {
		flashError(w, r, h.renderer, redirectRecover, "The reset link is invalid or has expired")
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectRecover) {
		return
	}

	password := r.FormValue("password")
	if password != r.FormValue("password2") {
		flashError(w, r, h.renderer, "/reset/"+token, "Passwords do not match")
		return
	}
	if len(password) < MinPasswordLength {
		flashError(w, r, h.renderer, "/reset/"+token,
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), userID)
	if err != nil || user.IsDeleted() {
		flashError(w, r, h.renderer, redirectRecover, "The reset link is invalid or has expired")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		internalError(w, r, h.renderer, "password hashing failed", "error", err)
		return
	}
	if err := h.queries.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		internalError(w, r, h.renderer, "updating password failed", "error", err, "user_id", user.ID)
		return
	}

	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo,
		"Password reset completed", &user.ID, middleware.GetClientIP(r), nil)
	flashSuccess(w, r, h.renderer, redirectLogin, "Your password has been updated. Please log in")
}

// formatDuration renders a lockout duration for user-facing messages.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	if d < time.Minute {
		return "less than a minute"
	}
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
	return fmt.Sprintf("%d hours", int(d.Hours()))
}
