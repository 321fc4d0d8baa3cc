// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Event severity levels stored in the events table.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories.
const (
	EventCategoryAuth      = "auth"
	EventCategoryUser      = "user"
	EventCategoryPost      = "post"
	EventCategoryComment   = "comment"
	EventCategoryRoom      = "room"
	EventCategorySystem    = "system"
	EventCategoryScheduler = "scheduler"
)
