// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/blogo/internal/model"
)

func TestFollowUnfollow(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "fan", model.RoleUser)
	star := app.createUser(t, "star", model.RoleUser)
	app.login(t, "fan")

	body := app.postForm(t, "/user/star/follow", nil)
	if !strings.Contains(body, "now following star") {
		t.Fatalf("follow failed: %s", body)
	}
	n, err := app.queries.CountFollowers(context.Background(), star.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountFollowers = %d, %v; want 1", n, err)
	}

	// Following twice reports the existing edge.
	body = app.postForm(t, "/user/star/follow", nil)
	if !strings.Contains(body, "already following star") {
		t.Errorf("duplicate follow: %s", body)
	}
	if n, _ = app.queries.CountFollowers(context.Background(), star.ID); n != 1 {
		t.Errorf("duplicate follow created an edge, count = %d", n)
	}

	body = app.postForm(t, "/user/star/unfollow", nil)
	if !strings.Contains(body, "no longer following star") {
		t.Fatalf("unfollow failed: %s", body)
	}
	if n, _ = app.queries.CountFollowers(context.Background(), star.ID); n != 0 {
		t.Errorf("edge survives unfollow, count = %d", n)
	}

	body = app.postForm(t, "/user/star/unfollow", nil)
	if !strings.Contains(body, "not following star") {
		t.Errorf("second unfollow: %s", body)
	}
}

func TestFollow_SelfRejected(t *testing.T) {
	app := newTestApp(t)
	me := app.createUser(t, "narcissus", model.RoleUser)
	app.login(t, "narcissus")

	body := app.postForm(t, "/user/narcissus/follow", nil)
	if !strings.Contains(body, "cannot follow yourself") {
		t.Errorf("self-follow accepted: %s", body)
	}
	if n, _ := app.queries.CountFollowers(context.Background(), me.ID); n != 0 {
		t.Errorf("self edge created, count = %d", n)
	}
}

func TestFollow_DeletedTargetNotFound(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "fan", model.RoleUser)
	gone := app.createUser(t, "gone", model.RoleUser)
	if err := app.queries.SoftDeleteUser(context.Background(), gone.ID, time.Now()); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	app.login(t, "fan")
	resp, _ := app.postFormResp(t, "/user/gone/follow", nil)
	if resp.StatusCode != 404 {
		t.Errorf("following deleted user status = %d, want 404", resp.StatusCode)
	}
}

func TestFollowerListings(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", model.RoleUser)
	app.createUser(t, "bob", model.RoleUser)
	app.createUser(t, "carol", model.RoleUser)

	app.login(t, "alice")
	app.postForm(t, "/user/carol/follow", nil)
	app.get(t, RouteLogout)
	app.login(t, "bob")
	app.postForm(t, "/user/carol/follow", nil)
	app.get(t, RouteLogout)
	app.login(t, "carol")
	app.postForm(t, "/user/alice/follow", nil)

	_, body := app.get(t, "/user/carol/followers")
	for _, want := range []string{"<u>alice</u>", "<u>bob</u>"} {
		if !strings.Contains(body, want) {
			t.Errorf("followers page missing %s: %s", want, body)
		}
	}

	_, body = app.get(t, "/user/carol/following")
	if !strings.Contains(body, "<u>alice</u>") {
		t.Errorf("following page missing alice: %s", body)
	}
	if strings.Contains(body, "<u>bob</u>") {
		t.Errorf("following page lists a non-followed user: %s", body)
	}
}
