// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/url"
	"testing"
)

func TestBuildPagination_Bounds(t *testing.T) {
	tests := []struct {
		name        string
		currentPage int
		totalItems  int64
		wantCurrent int
		wantTotal   int
	}{
		{"empty set still has one page", 1, 0, 1, 1},
		{"page below one clamps", -3, 50, 1, 5},
		{"page beyond end clamps", 99, 50, 5, 5},
		{"exact boundary", 5, 50, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildPagination(tt.currentPage, tt.totalItems, 10, "/x", nil)
			if p.CurrentPage != tt.wantCurrent || p.TotalPages != tt.wantTotal {
				t.Errorf("got page %d of %d, want %d of %d",
					p.CurrentPage, p.TotalPages, tt.wantCurrent, tt.wantTotal)
			}
		})
	}
}

func TestBuildPagination_Window(t *testing.T) {
	// 20 pages, current in the middle: first page, ellipsis, five around
	// the current page, ellipsis, last page.
	p := BuildPagination(10, 200, 10, "/x", nil)

	var numbers []int
	ellipses := 0
	for _, page := range p.Pages {
		if page.IsEllipsis {
			ellipses++
			continue
		}
		numbers = append(numbers, page.Number)
	}
	want := []int{1, 8, 9, 10, 11, 12, 20}
	if len(numbers) != len(want) {
		t.Fatalf("page numbers = %v, want %v", numbers, want)
	}
	for i := range want {
		if numbers[i] != want[i] {
			t.Fatalf("page numbers = %v, want %v", numbers, want)
		}
	}
	if ellipses != 2 {
		t.Errorf("ellipses = %d, want 2", ellipses)
	}

	for _, page := range p.Pages {
		if page.Number == 10 && !page.IsCurrent {
			t.Error("current page not marked")
		}
	}
}

func TestBuildPagination_NoEllipsisForShortSets(t *testing.T) {
	p := BuildPagination(2, 40, 10, "/x", nil)
	for _, page := range p.Pages {
		if page.IsEllipsis {
			t.Fatalf("unexpected ellipsis in %v", p.Pages)
		}
	}
	if len(p.Pages) != 4 {
		t.Errorf("len(Pages) = %d, want 4", len(p.Pages))
	}
}

func TestPagination_PreservesQuery(t *testing.T) {
	q := url.Values{"q": {"term"}, "page": {"3"}}
	p := BuildPagination(3, 100, 10, "/search", q)

	got := p.PageURL(4)
	if got != "/search?q=term&page=4" {
		t.Errorf("PageURL = %q", got)
	}
	if p.PrevURL() != "/search?q=term&page=2" {
		t.Errorf("PrevURL = %q", p.PrevURL())
	}
}

func TestPagination_Offset(t *testing.T) {
	p := BuildPagination(3, 100, 9, "/x", nil)
	if got := p.Offset(); got != 18 {
		t.Errorf("Offset = %d, want 18", got)
	}
	if !p.ShouldShow() {
		t.Error("ShouldShow = false for a multi-page set")
	}

	single := BuildPagination(1, 5, 10, "/x", nil)
	if single.ShouldShow() {
		t.Error("ShouldShow = true for a single page")
	}
}
