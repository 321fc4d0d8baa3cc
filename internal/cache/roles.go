// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/store"
)

// RoleTTL bounds how long a cached role may be served before the
// database is consulted again. Role edits are rare; a short TTL keeps
// permission changes from lingering.
const RoleTTL = 5 * time.Minute

// RoleCache caches role rows so that per-request permission checks do
// not hit the database.
type RoleCache struct {
	cache   Cacher
	queries *store.Queries
}

// cachedRole is the serialized cache entry for a role.
type cachedRole struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Permissions int64  `json:"permissions"`
}

// NewRoleCache creates a role cache over the given backend and queries.
func NewRoleCache(cache Cacher, queries *store.Queries) *RoleCache {
	return &RoleCache{cache: cache, queries: queries}
}

func roleKey(id int64) string {
	return fmt.Sprintf("role:%d", id)
}

// Get returns a role by id, from cache when possible.
func (rc *RoleCache) Get(ctx context.Context, id int64) (store.Role, error) {
	if data, err := rc.cache.Get(ctx, roleKey(id)); err == nil {
		var cr cachedRole
		if err := json.Unmarshal(data, &cr); err == nil {
			return store.Role{ID: cr.ID, Name: cr.Name, Permissions: cr.Permissions}, nil
		}
		// Corrupt entry, drop it and fall through to the database.
		_ = rc.cache.Delete(ctx, roleKey(id))
	} else if !errors.Is(err, ErrCacheMiss) {
		// Backend trouble must not take permission checks down.
		return rc.queries.GetRoleByID(ctx, id)
	}

	role, err := rc.queries.GetRoleByID(ctx, id)
	if err != nil {
		return store.Role{}, err
	}

	data, err := json.Marshal(cachedRole{ID: role.ID, Name: role.Name, Permissions: role.Permissions})
	if err == nil {
		_ = rc.cache.Set(ctx, roleKey(role.ID), data, RoleTTL)
	}
	return role, nil
}

// Permissions returns the permission bitmask for a role id.
func (rc *RoleCache) Permissions(ctx context.Context, roleID int64) (model.Permissions, error) {
	role, err := rc.Get(ctx, roleID)
	if err != nil {
		return 0, err
	}
	return model.Permissions(role.Permissions), nil
}

// Invalidate drops a role from the cache after an edit.
func (rc *RoleCache) Invalidate(ctx context.Context, roleID int64) error {
	return rc.cache.Delete(ctx, roleKey(roleID))
}
