// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/store"
	"github.com/olegiv/blogo/internal/testutil"
)

func TestEventService_LogEvent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	svc := NewEventService(db)

	userID := int64(42)
	if err := svc.LogAuthEvent(ctx, model.EventLevelWarning, "failed login", &userID, "10.0.0.1", map[string]any{
		"login": "alice",
	}); err != nil {
		t.Fatalf("LogAuthEvent: %v", err)
	}

	events, err := store.New(db).ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}

	ev := events[0]
	if ev.Level != model.EventLevelWarning {
		t.Errorf("Level = %q, want %q", ev.Level, model.EventLevelWarning)
	}
	if ev.Category != model.EventCategoryAuth {
		t.Errorf("Category = %q, want %q", ev.Category, model.EventCategoryAuth)
	}
	if !ev.UserID.Valid || ev.UserID.Int64 != userID {
		t.Errorf("UserID = %+v, want %d", ev.UserID, userID)
	}
	if ev.IPAddress != "10.0.0.1" {
		t.Errorf("IPAddress = %q, want 10.0.0.1", ev.IPAddress)
	}
}

func TestEventService_DeleteOldEvents(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	svc := NewEventService(db)
	queries := store.New(db)

	old := time.Now().Add(-90 * 24 * time.Hour)
	if _, err := queries.CreateEvent(ctx, store.CreateEventParams{
		Level: model.EventLevelInfo, Category: model.EventCategorySystem,
		Message: "ancient", Metadata: "{}", CreatedAt: old,
	}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if err := svc.LogSystemEvent(ctx, model.EventLevelInfo, "fresh", nil, "", nil); err != nil {
		t.Fatalf("LogSystemEvent: %v", err)
	}

	removed, err := svc.DeleteOldEvents(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
}
