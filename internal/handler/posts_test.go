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

func createPostVia(t *testing.T, app *testApp, title, body string) store.Post {
	t.Helper()
	resp := app.postForm(t, "/post/new", url.Values{
		"title": {title},
		"body":  {body},
	})
	if !strings.Contains(resp, "has been published") {
		t.Fatalf("creating post failed: %s", resp)
	}
	posts, err := app.queries.ListPosts(context.Background(), store.ListPostsParams{Limit: 1, Offset: 0})
	if err != nil || len(posts) == 0 {
		t.Fatalf("post not stored: %v", err)
	}
	return posts[0]
}

func TestPostLifecycle(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "writer", model.RoleUser)
	app.login(t, "writer")

	post := createPostVia(t, app, "Hello World", "first **post**")
	if post.Slug != "hello-world" {
		t.Errorf("Slug = %q, want hello-world", post.Slug)
	}

	_, body := app.get(t, postURL(post.ID))
	if !strings.Contains(body, "first **post**") {
		t.Errorf("post page missing body: %s", body)
	}

	// Edit by the author.
	resp := app.postForm(t, postURL(post.ID)+"/edit", url.Values{
		"title": {"Hello Again"},
		"body":  {"updated"},
	})
	if !strings.Contains(resp, "has been updated") {
		t.Fatalf("edit failed: %s", resp)
	}
	updated, err := app.queries.GetPostByID(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if updated.Title != "Hello Again" || updated.Slug != "hello-again" {
		t.Errorf("post after edit = %q/%q", updated.Title, updated.Slug)
	}

	// Delete.
	resp = app.postForm(t, postURL(post.ID)+"/delete", nil)
	if !strings.Contains(resp, "has been deleted") {
		t.Fatalf("delete failed: %s", resp)
	}
	if _, err := app.queries.GetPostByID(context.Background(), post.ID); err == nil {
		t.Error("post still present after delete")
	}
}

func TestPost_Validation(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "writer", model.RoleUser)
	app.login(t, "writer")

	body := app.postForm(t, "/post/new", url.Values{"title": {""}, "body": {"x"}})
	if !strings.Contains(body, "Title and body are required") {
		t.Errorf("empty title accepted: %s", body)
	}
}

func TestEditPost_ForbiddenForNonAuthor(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "author", model.RoleUser)
	app.createUser(t, "stranger", model.RoleUser)

	app.login(t, "author")
	post := createPostVia(t, app, "Mine", "body")
	app.get(t, RouteLogout)

	app.login(t, "stranger")
	resp, _ := app.postFormResp(t, postURL(post.ID)+"/edit", url.Values{
		"title": {"Hijacked"},
		"body":  {"nope"},
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("non-author edit status = %d, want 403", resp.StatusCode)
	}

	kept, err := app.queries.GetPostByID(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if kept.Title != "Mine" {
		t.Errorf("post title changed to %q", kept.Title)
	}
}

func TestEditPost_AdminMayEditAny(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "author", model.RoleUser)
	app.createUser(t, "root", model.RoleAdministrator)

	app.login(t, "author")
	post := createPostVia(t, app, "Original", "body")
	app.get(t, RouteLogout)

	app.login(t, "root")
	resp := app.postForm(t, postURL(post.ID)+"/edit", url.Values{
		"title": {"Moderated Title"},
		"body":  {"cleaned up"},
	})
	if !strings.Contains(resp, "has been updated") {
		t.Errorf("admin edit failed: %s", resp)
	}
}

func TestShowPost_NotFound(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.get(t, "/post/99999")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHomeFeed_Paginated(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "writer", model.RoleUser)
	app.login(t, "writer")

	for i := 0; i < PostsPerPage+2; i++ {
		app.postForm(t, "/post/new", url.Values{
			"title": {"Post " + string(rune('A'+i))},
			"body":  {"body"},
		})
	}

	_, body := app.get(t, "/")
	if got := strings.Count(body, "<post>"); got != PostsPerPage {
		t.Errorf("page 1 shows %d posts, want %d", got, PostsPerPage)
	}
	_, body = app.get(t, "/?page=2")
	if got := strings.Count(body, "<post>"); got != 2 {
		t.Errorf("page 2 shows %d posts, want 2", got)
	}
}
