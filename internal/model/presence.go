// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// OnlineWindow is how recently a user must have been seen to count as
// online. Presence is derived from last_seen on every evaluation, never
// stored or cached.
const OnlineWindow = 2 * time.Minute

// ActivityWindow is the wider window used by the online-users listing.
const ActivityWindow = 10 * time.Minute

// IsOnline reports whether a user last seen at lastSeen counts as
// online at the instant now.
func IsOnline(lastSeen, now time.Time) bool {
	return now.Sub(lastSeen) <= OnlineWindow
}
