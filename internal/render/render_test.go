// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func testTemplatesFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{Data: []byte(
			`{{define "base"}}<html><body>{{template "flash" .}}{{template "content" .}}</body></html>{{end}}`)},
		"partials/flash.html": &fstest.MapFile{Data: []byte(
			`{{define "flash"}}{{if .Flash}}<div class="{{.FlashType}}">{{.Flash}}</div>{{end}}{{end}}`)},
		"blog/index.html": &fstest.MapFile{Data: []byte(
			`{{define "content"}}<h1>{{.Title}}</h1>{{end}}`)},
	}
}

func TestRenderer_Render(t *testing.T) {
	r, err := New(Config{TemplatesFS: testTemplatesFS()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := r.Render(rec, req, "blog/index", TemplateData{Title: "Home"}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "<h1>Home</h1>") {
		t.Errorf("body missing title: %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	r, err := New(Config{TemplatesFS: testTemplatesFS()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := r.Render(rec, req, "blog/missing", TemplateData{}); err == nil {
		t.Error("Render of unknown template should error")
	}
}

func TestMarkdown_Sanitizes(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		want    string
		exclude string
	}{
		{
			name:   "basic formatting",
			source: "**bold** text",
			want:   "<strong>bold</strong>",
		},
		{
			name:    "script stripped",
			source:  `hello <script>alert("x")</script>`,
			want:    "hello",
			exclude: "<script>",
		},
		{
			name:   "gfm table",
			source: "| a | b |\n|---|---|\n| 1 | 2 |",
			want:   "<table>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(Markdown(tt.source))
			if !strings.Contains(got, tt.want) {
				t.Errorf("Markdown(%q) = %q, want substring %q", tt.source, got, tt.want)
			}
			if tt.exclude != "" && strings.Contains(got, tt.exclude) {
				t.Errorf("Markdown(%q) = %q, must not contain %q", tt.source, got, tt.exclude)
			}
		})
	}
}

func TestGravatar(t *testing.T) {
	got := Gravatar("  Alice@Example.COM ", 80)
	want := Gravatar("alice@example.com", 80)
	if got != want {
		t.Errorf("Gravatar should normalize case and whitespace: %q != %q", got, want)
	}
	if !strings.Contains(got, "s=80") {
		t.Errorf("Gravatar missing size parameter: %q", got)
	}
}
