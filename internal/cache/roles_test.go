// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/store"
	"github.com/olegiv/blogo/internal/testutil"
)

func TestRoleCache(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	queries := store.New(db)
	if err := queries.SeedRoles(ctx); err != nil {
		t.Fatalf("SeedRoles: %v", err)
	}

	backend := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer backend.Close()
	rc := NewRoleCache(backend, queries)

	mod, err := queries.GetRoleByName(ctx, model.RoleModerator)
	if err != nil {
		t.Fatalf("GetRoleByName: %v", err)
	}

	perms, err := rc.Permissions(ctx, mod.ID)
	if err != nil {
		t.Fatalf("Permissions: %v", err)
	}
	if !perms.Has(model.PermModerate) {
		t.Error("moderator permissions missing moderate bit")
	}
	if perms.Has(model.PermAdmin) {
		t.Error("moderator permissions include admin bit")
	}

	// Second lookup must come from the cache.
	if _, err := rc.Permissions(ctx, mod.ID); err != nil {
		t.Fatalf("Permissions (cached): %v", err)
	}
	if stats := backend.Stats(); stats.Hits == 0 {
		t.Error("expected a cache hit on second lookup")
	}

	// After invalidation a role edit becomes visible.
	if err := queries.UpdateRolePermissions(ctx, mod.ID, int64(model.Compose(model.PermFollow))); err != nil {
		t.Fatalf("UpdateRolePermissions: %v", err)
	}
	if err := rc.Invalidate(ctx, mod.ID); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	perms, err = rc.Permissions(ctx, mod.ID)
	if err != nil {
		t.Fatalf("Permissions after invalidate: %v", err)
	}
	if perms.Has(model.PermModerate) {
		t.Error("stale permissions served after invalidation")
	}
}
