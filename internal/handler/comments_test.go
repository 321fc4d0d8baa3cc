// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/store"
)

func listVisibleParams(postID int64) store.ListVisibleCommentsParams {
	return store.ListVisibleCommentsParams{PostID: postID, Limit: 10, Offset: 0}
}

func TestCreateComment(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "writer", model.RoleUser)
	app.login(t, "writer")
	post := createPostVia(t, app, "Commented", "body")

	body := app.postForm(t, postURL(post.ID)+"/comment", url.Values{"body": {"nice one"}})
	if !strings.Contains(body, "comment has been published") {
		t.Fatalf("comment not accepted: %s", body)
	}
	if !strings.Contains(body, "<comment>nice one</comment>") {
		t.Errorf("comment not shown on post page: %s", body)
	}
}

func TestCreateComment_Validation(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "writer", model.RoleUser)
	app.login(t, "writer")
	post := createPostVia(t, app, "Strict", "body")

	body := app.postForm(t, postURL(post.ID)+"/comment", url.Values{"body": {"   "}})
	if !strings.Contains(body, "Comment cannot be empty") {
		t.Errorf("blank comment accepted: %s", body)
	}

	long := strings.Repeat("a", MaxCommentLength+1)
	body = app.postForm(t, postURL(post.ID)+"/comment", url.Values{"body": {long}})
	if !strings.Contains(body, "limited to") {
		t.Errorf("over-limit comment accepted: %s", body)
	}
}

func TestModerateComment_DisableEnable(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "writer", model.RoleUser)
	app.createUser(t, "mod", model.RoleModerator)

	app.login(t, "writer")
	post := createPostVia(t, app, "Flagged", "body")
	app.postForm(t, postURL(post.ID)+"/comment", url.Values{"body": {"rude remark"}})
	app.get(t, RouteLogout)

	comments, err := app.queries.ListVisibleComments(context.Background(),
		listVisibleParams(post.ID))
	if err != nil || len(comments) != 1 {
		t.Fatalf("comment not stored: %v", err)
	}
	commentID := comments[0].ID

	app.login(t, "mod")

	body := app.postForm(t, commentPath(commentID, "disable"), nil)
	if !strings.Contains(body, "Comment hidden") {
		t.Fatalf("disable failed: %s", body)
	}

	// Hidden comments disappear from the post page.
	_, body = app.get(t, postURL(post.ID))
	if strings.Contains(body, "rude remark") {
		t.Error("disabled comment still visible on post page")
	}

	// But stay on the moderation queue.
	_, body = app.get(t, "/moderate")
	if !strings.Contains(body, "rude remark") {
		t.Error("disabled comment missing from moderation page")
	}

	// Disabling again reports the current state.
	body = app.postForm(t, commentPath(commentID, "disable"), nil)
	if !strings.Contains(body, "already disabled") {
		t.Errorf("second disable: %s", body)
	}

	body = app.postForm(t, commentPath(commentID, "enable"), nil)
	if !strings.Contains(body, "Comment restored") {
		t.Fatalf("enable failed: %s", body)
	}
	_, body = app.get(t, postURL(post.ID))
	if !strings.Contains(body, "rude remark") {
		t.Error("restored comment not visible")
	}

	body = app.postForm(t, commentPath(commentID, "enable"), nil)
	if !strings.Contains(body, "already enabled") {
		t.Errorf("second enable: %s", body)
	}
}

func TestModerateComment_Edit(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "writer", model.RoleUser)
	app.createUser(t, "mod", model.RoleModerator)

	app.login(t, "writer")
	post := createPostVia(t, app, "Edited", "body")
	app.postForm(t, postURL(post.ID)+"/comment", url.Values{"body": {"typo here"}})
	app.get(t, RouteLogout)

	comments, err := app.queries.ListVisibleComments(context.Background(),
		listVisibleParams(post.ID))
	if err != nil || len(comments) != 1 {
		t.Fatalf("comment not stored: %v", err)
	}

	app.login(t, "mod")
	body := app.postForm(t, commentPath(comments[0].ID, "edit"), url.Values{"body": {"typo fixed"}})
	if !strings.Contains(body, "Comment updated") {
		t.Fatalf("edit failed: %s", body)
	}
	if !strings.Contains(body, "<comment>typo fixed</comment>") {
		t.Errorf("edited body not shown: %s", body)
	}
}

func TestModerate_RequiresModerator(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "plain", model.RoleUser)
	app.login(t, "plain")

	resp, _ := app.get(t, "/moderate")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("moderation page status = %d, want 403", resp.StatusCode)
	}
}

func commentPath(id int64, action string) string {
	return "/comment/" + formatID(id) + "/" + action
}
