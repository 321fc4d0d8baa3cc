// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogo/internal/auth"
	"github.com/olegiv/blogo/internal/cache"
	"github.com/olegiv/blogo/internal/mail"
	"github.com/olegiv/blogo/internal/middleware"
	"github.com/olegiv/blogo/internal/render"
	"github.com/olegiv/blogo/internal/service"
	"github.com/olegiv/blogo/internal/session"
	"github.com/olegiv/blogo/internal/storage"
	"github.com/olegiv/blogo/internal/store"
	"github.com/olegiv/blogo/internal/testutil"
	"github.com/olegiv/blogo/internal/ws"
)

const testPassword = "correct-horse42"

// recordingMailer captures outgoing messages for assertions.
type recordingMailer struct {
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

// testTemplates builds a minimal template set covering every page the
// handlers render. Pages echo the data the tests assert on.
func testTemplates() fstest.MapFS {
	fsys := fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{Data: []byte(
			`{{define "base"}}[{{.Title}}]` +
				`{{if .User}}<nav>{{.User.Username}}</nav>{{end}}` +
				`{{if .Flash}}<flash class="{{.FlashType}}">{{.Flash}}</flash>{{end}}` +
				`{{template "content" .}}{{end}}`)},
		"partials/pager.html": &fstest.MapFile{Data: []byte(
			`{{define "pager"}}{{end}}`)},
	}

	pages := map[string]string{
		"auth/login":        ``,
		"auth/register":     ``,
		"auth/recover":      ``,
		"auth/reset":        `{{.Data.Token}}`,
		"auth/edit_profile": ``,
		"blog/index":        `{{range .Data.Posts}}<post>{{.Title}}</post>{{end}}`,
		"blog/post":         `<body>{{.Data.Post.Body}}</body>{{range .Data.Comments}}<comment>{{.Body}}</comment>{{end}}`,
		"blog/post_form":    ``,
		"blog/user": `<profile>{{.Data.Profile.Username}}</profile>` +
			`<followers>{{.Data.Followers}}</followers><following>{{.Data.Following}}</following>`,
		"blog/follows":       `{{range .Data.Users}}<u>{{.Username}}</u>{{end}}`,
		"blog/online":        `{{range .Data.Users}}<u>{{.Username}}</u>{{end}}`,
		"blog/contact":       ``,
		"rooms/index":        `{{range .Data.Rooms}}<room>{{.Name}}</room>{{end}}`,
		"rooms/new":          ``,
		"rooms/room":         `<room>{{.Data.Room.Name}}</room>{{range .Data.Online}}<on>{{.User.Username}}</on>{{end}}`,
		"admin/users":        `{{range .Data.Users}}<u>{{.Username}}</u>{{end}}`,
		"admin/user_edit":    `<target>{{.Data.Target.Username}}</target>`,
		"admin/events":       `{{range .Data.Events}}<e>{{.Message}}</e>{{end}}`,
		"admin/moderate":     `{{range .Data.Comments}}<comment>{{.Body}}</comment>{{end}}`,
		"admin/comment_edit": `<body>{{.Data.Comment.Body}}</body>`,
		"errors/404":         ``,
		"errors/403":         ``,
		"errors/500":         ``,
	}
	for name, content := range pages {
		fsys[name+".html"] = &fstest.MapFile{Data: []byte(`{{define "content"}}` + content + `{{end}}`)}
	}
	return fsys
}

// testApp wires the full handler stack against a temp database and an
// httptest server with a cookie-jar client.
type testApp struct {
	db      *sql.DB
	queries *store.Queries
	mailer  *recordingMailer
	tokens  *auth.TokenIssuer
	hub     *ws.Hub
	srv     *httptest.Server
	client  *http.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	queries := store.New(db)
	if err := queries.SeedRoles(context.Background()); err != nil {
		t.Fatalf("seeding roles: %v", err)
	}

	sm := session.New(db, true)
	renderer, err := render.New(render.Config{
		TemplatesFS:    testTemplates(),
		SessionManager: sm,
	})
	if err != nil {
		t.Fatalf("building renderer: %v", err)
	}

	roles := cache.NewRoleCache(cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute}), queries)
	events := service.NewEventService(db)
	lp := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	tokens := auth.NewTokenIssuer([]byte("test-secret-key-0123456789abcdef"))
	mailer := &recordingMailer{}
	hub := ws.NewHub()
	uploads, err := storage.NewUploadStore(t.TempDir())
	if err != nil {
		t.Fatalf("upload store: %v", err)
	}

	h := Handlers{
		Auth:    NewAuthHandler(db, renderer, sm, lp, tokens, mailer, "http://example.test"),
		Home:    NewHomeHandler(db, renderer, roles, mailer, "admin@example.test", PostsPerPage),
		Posts:   NewPostHandler(db, renderer, roles, uploads),
		Comment: NewCommentHandler(db, renderer, roles),
		Follow:  NewFollowHandler(db, renderer, FollowersPerPage),
		Users:   NewUserHandler(db, renderer, roles, UsersPerPage),
		Rooms:   NewRoomHandler(db, renderer, roles, hub, RoomsPerPage),
		Admin:   NewAdminHandler(db, renderer),
		SEO:     NewSEOHandler(db, "http://example.test", "admin@example.test"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestPath)
	r.Use(sm.LoadAndSave)
	Register(r, h, sm, db, roles, events, nil)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	return &testApp{
		db:      db,
		queries: queries,
		mailer:  mailer,
		tokens:  tokens,
		hub:     hub,
		srv:     srv,
		client:  &http.Client{Jar: jar},
	}
}

// createUser inserts a confirmed user with the named role.
func (a *testApp) createUser(t *testing.T, username, roleName string) store.User {
	t.Helper()
	role, err := a.queries.GetRoleByName(context.Background(), roleName)
	if err != nil {
		t.Fatalf("role %s: %v", roleName, err)
	}
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	now := time.Now().UTC()
	user, err := a.queries.CreateUser(context.Background(), store.CreateUserParams{
		Username:     username,
		Email:        username + "@example.test",
		PasswordHash: hash,
		Confirmed:    true,
		RoleID:       role.ID,
		MemberSince:  now,
		LastSeen:     now,
	})
	if err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return user
}

// login authenticates the client session as the given user.
func (a *testApp) login(t *testing.T, username string) {
	t.Helper()
	body := a.postForm(t, RouteLogin, url.Values{
		"login":    {username},
		"password": {testPassword},
	})
	if !strings.Contains(body, "<nav>"+username+"</nav>") {
		t.Fatalf("login as %s failed: %s", username, body)
	}
}

// get fetches a path and returns the final response and body. Redirects
// are followed.
func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(b)
}

// postForm submits a form and returns the body of the final page after
// redirects.
func (a *testApp) postForm(t *testing.T, path string, form url.Values) string {
	t.Helper()
	resp, err := a.client.PostForm(a.srv.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(b)
}

// postFormResp submits a form and returns the final response and body.
func (a *testApp) postFormResp(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.PostForm(a.srv.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(b)
}
