// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain types shared across the application:
// the permission bitmask, canonical role names, and presence rules.
package model

// Permission is a single capability bit.
type Permission int64

// Capability bits. ADMIN implies nothing by itself; roles compose bits.
const (
	PermFollow   Permission = 1
	PermComment  Permission = 2
	PermWrite    Permission = 4
	PermModerate Permission = 8
	PermAdmin    Permission = 16
)

// Permissions is a bitmask of capabilities held by a role.
type Permissions int64

// Has reports whether every bit of p is contained in the mask.
func (m Permissions) Has(p Permission) bool {
	return m&Permissions(p) == Permissions(p)
}

// Add returns the mask with p set. Adding a bit already held is a no-op.
func (m Permissions) Add(p Permission) Permissions {
	return m | Permissions(p)
}

// Remove returns the mask with p cleared. Removing a bit not held is a no-op.
func (m Permissions) Remove(p Permission) Permissions {
	return m &^ Permissions(p)
}

// Reset returns the zero mask.
func (m Permissions) Reset() Permissions {
	return 0
}

// Union returns the combined mask.
func (m Permissions) Union(other Permissions) Permissions {
	return m | other
}

// Compose builds a mask from individual permission bits.
func Compose(perms ...Permission) Permissions {
	var m Permissions
	for _, p := range perms {
		m = m.Add(p)
	}
	return m
}

// Canonical role names. Role rows are seeded at provisioning time; see
// store.SeedRoles.
const (
	RoleUser          = "User"
	RoleModerator     = "Moderator"
	RoleAdministrator = "Administrator"
)

// RolePermissions returns the permission set for a canonical role name,
// and false for an unknown role.
func RolePermissions(name string) (Permissions, bool) {
	switch name {
	case RoleUser:
		return Compose(PermFollow, PermComment, PermWrite), true
	case RoleModerator:
		return Compose(PermFollow, PermComment, PermWrite, PermModerate), true
	case RoleAdministrator:
		return Compose(PermFollow, PermComment, PermWrite, PermModerate, PermAdmin), true
	default:
		return 0, false
	}
}
