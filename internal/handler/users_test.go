// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/blogo/internal/model"
)

func TestProfilePage(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "public", model.RoleUser)
	app.createUser(t, "fan", model.RoleUser)

	app.login(t, "fan")
	app.postForm(t, "/user/public/follow", nil)

	_, body := app.get(t, "/user/public")
	if !strings.Contains(body, "<profile>public</profile>") {
		t.Fatalf("profile page: %s", body)
	}
	if !strings.Contains(body, "<followers>1</followers>") {
		t.Errorf("follower count not rendered: %s", body)
	}
}

func TestProfilePage_DeletedIsHidden(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "vanished", model.RoleUser)
	if err := app.queries.SoftDeleteUser(context.Background(), user.ID, time.Now()); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	resp, _ := app.get(t, "/user/vanished")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted profile status = %d, want 404", resp.StatusCode)
	}
}

func TestEditProfile(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "editor", model.RoleUser)
	app.login(t, "editor")

	// The current password is required.
	body := app.postForm(t, "/user/edit", url.Values{
		"current_password": {"not-the-password"},
		"first_name":       {"Eddie"},
	})
	if !strings.Contains(body, "Current password is incorrect") {
		t.Fatalf("wrong current password accepted: %s", body)
	}

	body = app.postForm(t, "/user/edit", url.Values{
		"current_password": {testPassword},
		"first_name":       {"Eddie"},
		"last_name":        {"Example"},
		"about_me":         {"I edit things."},
		"news_letter":      {"on"},
	})
	if !strings.Contains(body, "profile has been updated") {
		t.Fatalf("profile edit failed: %s", body)
	}

	user, err := app.queries.GetUserByUsername(context.Background(), "editor")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if user.FirstName != "Eddie" || user.LastName != "Example" || !user.NewsLetter {
		t.Errorf("profile fields not stored: %+v", user)
	}
}

func TestEditProfile_ShortPasswordLeavesProfileUntouched(t *testing.T) {
	app := newTestApp(t)
	before := app.createUser(t, "editor", model.RoleUser)
	app.login(t, "editor")

	// A rejected replacement password must reject the whole form, not
	// just the password half of it.
	body := app.postForm(t, "/user/edit", url.Values{
		"current_password": {testPassword},
		"first_name":       {"Sneaky"},
		"new_password":     {"ab"},
	})
	if !strings.Contains(body, "New password must be at least") {
		t.Fatalf("short password accepted: %s", body)
	}

	after, err := app.queries.GetUserByUsername(context.Background(), "editor")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if after.FirstName != "" {
		t.Errorf("FirstName = %q; want unchanged", after.FirstName)
	}
	if after.PasswordHash != before.PasswordHash {
		t.Error("password hash changed on a rejected form")
	}
}

func TestOnlineUsers(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "active", model.RoleUser)
	idle := app.createUser(t, "idle", model.RoleUser)

	// Push the idle account outside the activity window.
	stale := time.Now().Add(-model.ActivityWindow - time.Minute)
	if err := app.queries.UpdateLastSeen(context.Background(), idle.ID, stale); err != nil {
		t.Fatalf("backdating last_seen: %v", err)
	}

	app.login(t, "active")
	_, body := app.get(t, "/users/online")
	if !strings.Contains(body, "<u>active</u>") {
		t.Errorf("active user missing from online page: %s", body)
	}
	if strings.Contains(body, "<u>idle</u>") {
		t.Errorf("idle user listed as online: %s", body)
	}
}

func TestAdminUsers_RequiresAdmin(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "plain", model.RoleUser)
	app.login(t, "plain")

	resp, _ := app.get(t, redirectAdmin)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("admin page status = %d, want 403", resp.StatusCode)
	}
}

func TestAdminEditUser_RoleChange(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "root", model.RoleAdministrator)
	target := app.createUser(t, "promotee", model.RoleUser)
	app.login(t, "root")

	_, body := app.get(t, redirectAdmin)
	if !strings.Contains(body, "<u>promotee</u>") {
		t.Fatalf("admin listing missing target: %s", body)
	}

	modRole, err := app.queries.GetRoleByName(context.Background(), model.RoleModerator)
	if err != nil {
		t.Fatalf("moderator role: %v", err)
	}
	body = app.postForm(t, "/admin/users/"+formatID(target.ID), url.Values{
		"username": {"promotee"},
		"email":    {"promotee@example.test"},
		"role_id":  {formatID(modRole.ID)},
	})
	if !strings.Contains(body, "User updated") {
		t.Fatalf("admin edit failed: %s", body)
	}
	updated, err := app.queries.GetUserByID(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if updated.RoleID != modRole.ID {
		t.Errorf("RoleID = %d, want %d", updated.RoleID, modRole.ID)
	}

	// The promoted account can reach the moderation queue right away.
	app.get(t, RouteLogout)
	app.login(t, "promotee")
	resp, _ := app.get(t, "/moderate")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("moderation page after promotion = %d, want 200", resp.StatusCode)
	}
}

func TestAdminDeleteUndeleteUser(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "root", model.RoleAdministrator)
	target := app.createUser(t, "doomed", model.RoleUser)
	app.login(t, "root")

	deletePath := "/admin/users/" + formatID(target.ID) + "/delete"
	body := app.postForm(t, deletePath, nil)
	if !strings.Contains(body, "User deleted") {
		t.Fatalf("delete failed: %s", body)
	}
	user, err := app.queries.GetUserByID(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("soft-deleted user must stay addressable: %v", err)
	}
	if !user.IsDeleted() {
		t.Error("user not marked deleted")
	}

	// Deleting again reports the current state.
	body = app.postForm(t, deletePath, nil)
	if !strings.Contains(body, "already deleted") {
		t.Errorf("second delete: %s", body)
	}

	body = app.postForm(t, "/admin/users/"+formatID(target.ID)+"/undelete", nil)
	if !strings.Contains(body, "User restored") {
		t.Fatalf("undelete failed: %s", body)
	}
	user, err = app.queries.GetUserByID(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if user.IsDeleted() {
		t.Error("user still marked deleted after restore")
	}
}

func TestAdminDeleteUser_AdminsProtected(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "root", model.RoleAdministrator)
	other := app.createUser(t, "root2", model.RoleAdministrator)
	app.login(t, "root")

	body := app.postForm(t, "/admin/users/"+formatID(other.ID)+"/delete", nil)
	if !strings.Contains(body, "Administrators cannot be deleted") {
		t.Fatalf("admin deletion allowed: %s", body)
	}
	user, err := app.queries.GetUserByID(context.Background(), other.ID)
	if err != nil || user.IsDeleted() {
		t.Errorf("administrator was deleted: %v, %v", user.IsDeleted(), err)
	}
}
