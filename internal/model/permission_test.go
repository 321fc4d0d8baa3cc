// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

func TestPermissionsHas(t *testing.T) {
	m := Compose(PermFollow, PermComment, PermWrite)

	tests := []struct {
		name string
		perm Permission
		want bool
	}{
		{"follow held", PermFollow, true},
		{"comment held", PermComment, true},
		{"write held", PermWrite, true},
		{"moderate not held", PermModerate, false},
		{"admin not held", PermAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Has(tt.perm); got != tt.want {
				t.Errorf("Has(%d) = %v, want %v", tt.perm, got, tt.want)
			}
		})
	}
}

func TestPermissionsAddIdempotent(t *testing.T) {
	m := Permissions(0).Add(PermFollow)
	if !m.Has(PermFollow) {
		t.Fatal("Add(PermFollow) did not set the bit")
	}
	if again := m.Add(PermFollow); again != m {
		t.Errorf("re-adding a held bit changed the mask: %d != %d", again, m)
	}
}

func TestPermissionsRemoveIdempotent(t *testing.T) {
	m := Compose(PermFollow, PermComment)
	m = m.Remove(PermComment)
	if m.Has(PermComment) {
		t.Fatal("Remove(PermComment) did not clear the bit")
	}
	if again := m.Remove(PermComment); again != m {
		t.Errorf("re-removing a cleared bit changed the mask: %d != %d", again, m)
	}
	if !m.Has(PermFollow) {
		t.Error("Remove cleared an unrelated bit")
	}
}

func TestPermissionsReset(t *testing.T) {
	m := Compose(PermFollow, PermComment, PermWrite, PermModerate, PermAdmin)
	if m.Reset() != 0 {
		t.Error("Reset() did not zero the mask")
	}
}

func TestRolePermissions(t *testing.T) {
	userPerms, ok := RolePermissions(RoleUser)
	if !ok {
		t.Fatal("RoleUser is unknown")
	}
	if !userPerms.Has(PermWrite) || userPerms.Has(PermModerate) {
		t.Errorf("User role has wrong permissions: %d", userPerms)
	}

	modPerms, ok := RolePermissions(RoleModerator)
	if !ok || !modPerms.Has(PermModerate) || modPerms.Has(PermAdmin) {
		t.Errorf("Moderator role has wrong permissions: %d", modPerms)
	}

	adminPerms, ok := RolePermissions(RoleAdministrator)
	if !ok || !adminPerms.Has(PermAdmin) || !adminPerms.Has(PermFollow) {
		t.Errorf("Administrator role has wrong permissions: %d", adminPerms)
	}

	if _, ok := RolePermissions("Superuser"); ok {
		t.Error("unknown role reported as known")
	}
}

func TestIsOnline(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		lastSeen time.Time
		want     bool
	}{
		{"just pinged", now, true},
		{"one minute ago", now.Add(-time.Minute), true},
		{"exactly at window", now.Add(-OnlineWindow), true},
		{"just past window", now.Add(-OnlineWindow - time.Second), false},
		{"hours ago", now.Add(-3 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOnline(tt.lastSeen, now); got != tt.want {
				t.Errorf("IsOnline(%v) = %v, want %v", tt.lastSeen, got, tt.want)
			}
		})
	}
}
