// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package demo keeps a public demo instance fresh by wiping its
// database and uploads on a fixed interval. The caller reseeds demo
// content after the wipe.
package demo

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// markerFile records when the instance was last wiped.
	markerFile = ".last_reset"

	// resetInterval is how often demo data is discarded.
	resetInterval = 24 * time.Hour
)

// ResetIfNeeded wipes the database and uploads when the last reset is
// older than the interval, or when no reset has ever been recorded.
// It reports whether a wipe happened so the caller knows to reseed.
func ResetIfNeeded(dbPath, uploadsDir, dataDir string) (bool, error) {
	last, ok, err := lastResetAt(dataDir)
	if err != nil {
		return false, err
	}
	if ok && time.Since(last) < resetInterval {
		slog.Info("demo reset not due",
			"last_reset", last.UTC().Format(time.RFC3339),
			"next_reset", last.Add(resetInterval).UTC().Format(time.RFC3339))
		return false, nil
	}

	slog.Info("demo reset due, wiping database and uploads")
	if err := Reset(dbPath, uploadsDir, dataDir); err != nil {
		return false, err
	}
	return true, nil
}

// Reset wipes the sqlite files and the uploads directory contents,
// then records the reset time.
func Reset(dbPath, uploadsDir, dataDir string) error {
	// The WAL and SHM sidecars must go with the main database file.
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", dbPath+suffix, err)
		}
	}
	slog.Info("demo database removed", "path", dbPath)

	if err := clearDir(uploadsDir); err != nil {
		return fmt.Errorf("clearing uploads: %w", err)
	}
	slog.Info("demo uploads cleared", "path", uploadsDir)

	stamp := time.Now().UTC().Format(time.RFC3339)
	if err := os.WriteFile(filepath.Join(dataDir, markerFile), []byte(stamp), 0644); err != nil {
		return fmt.Errorf("writing reset marker: %w", err)
	}

	slog.Info("demo reset complete")
	return nil
}

// lastResetAt reads the reset marker. ok is false when no valid marker
// exists; an unreadable or corrupt marker counts as absent so the next
// startup recovers by resetting.
func lastResetAt(dataDir string) (last time.Time, ok bool, err error) {
	data, err := os.ReadFile(filepath.Join(dataDir, markerFile))
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading reset marker: %w", err)
	}

	last, perr := time.Parse(time.RFC3339, string(data))
	if perr != nil {
		return time.Time{}, false, nil
	}
	return last, true, nil
}

// clearDir removes everything inside dir but keeps dir itself. A
// missing dir is fine.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}
	return nil
}
