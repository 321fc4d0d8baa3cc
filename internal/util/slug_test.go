// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Hello World", "hello-world"},
		{"punctuation", "My Post! (draft)", "my-post-draft"},
		{"accents", "Café au lait", "cafe-au-lait"},
		{"multiple spaces", "a   b", "a-b"},
		{"leading trailing", " --trimmed-- ", "trimmed"},
		{"empty", "", ""},
		{"cyrillic", "Привет мир", "privet-mir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
