// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package demo

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// resetFixture lays out a data dir with a database file and a populated
// uploads dir.
func resetFixture(t *testing.T) (dbPath, uploadsDir, dataDir string) {
	t.Helper()
	dataDir = t.TempDir()
	dbPath = filepath.Join(dataDir, "test.db")
	uploadsDir = filepath.Join(dataDir, "uploads")

	if err := os.WriteFile(dbPath, []byte("db"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(uploadsDir, "img.png"), []byte("img"), 0644); err != nil {
		t.Fatal(err)
	}
	return dbPath, uploadsDir, dataDir
}

func writeMarker(t *testing.T, dataDir string, at time.Time) {
	t.Helper()
	stamp := at.UTC().Format(time.RFC3339)
	if err := os.WriteFile(filepath.Join(dataDir, markerFile), []byte(stamp), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestResetIfNeeded_NoMarker(t *testing.T) {
	dbPath, uploadsDir, dataDir := resetFixture(t)

	wiped, err := ResetIfNeeded(dbPath, uploadsDir, dataDir)
	if err != nil {
		t.Fatalf("ResetIfNeeded() error = %v", err)
	}
	if !wiped {
		t.Fatal("first run should reset")
	}

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Error("database file should be gone")
	}
	entries, _ := os.ReadDir(uploadsDir)
	if len(entries) != 0 {
		t.Errorf("uploads dir should be empty, got %d entries", len(entries))
	}
	if _, err := os.Stat(filepath.Join(dataDir, markerFile)); err != nil {
		t.Errorf("marker should be written: %v", err)
	}
}

func TestResetIfNeeded_StaleMarker(t *testing.T) {
	dbPath, uploadsDir, dataDir := resetFixture(t)
	writeMarker(t, dataDir, time.Now().Add(-25*time.Hour))

	wiped, err := ResetIfNeeded(dbPath, uploadsDir, dataDir)
	if err != nil {
		t.Fatalf("ResetIfNeeded() error = %v", err)
	}
	if !wiped {
		t.Fatal("stale marker should reset")
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Error("database file should be gone after a stale marker")
	}
}

func TestResetIfNeeded_FreshMarker(t *testing.T) {
	dbPath, uploadsDir, dataDir := resetFixture(t)
	writeMarker(t, dataDir, time.Now().Add(-time.Hour))

	wiped, err := ResetIfNeeded(dbPath, uploadsDir, dataDir)
	if err != nil {
		t.Fatalf("ResetIfNeeded() error = %v", err)
	}
	if wiped {
		t.Fatal("fresh marker should skip the reset")
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Error("database file should survive a fresh marker")
	}
}

func TestResetIfNeeded_CorruptMarker(t *testing.T) {
	dbPath, uploadsDir, dataDir := resetFixture(t)
	if err := os.WriteFile(filepath.Join(dataDir, markerFile), []byte("not a time"), 0644); err != nil {
		t.Fatal(err)
	}

	wiped, err := ResetIfNeeded(dbPath, uploadsDir, dataDir)
	if err != nil {
		t.Fatalf("ResetIfNeeded() error = %v", err)
	}
	if !wiped {
		t.Fatal("corrupt marker should be treated as absent")
	}
}

func TestReset_RemovesSidecars(t *testing.T) {
	dbPath, uploadsDir, dataDir := resetFixture(t)
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.WriteFile(dbPath+suffix, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := Reset(dbPath, uploadsDir, dataDir); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if _, err := os.Stat(dbPath + suffix); !os.IsNotExist(err) {
			t.Errorf("%s should be gone", dbPath+suffix)
		}
	}
}

func TestReset_KeepsUploadsDir(t *testing.T) {
	dbPath, uploadsDir, dataDir := resetFixture(t)
	nested := filepath.Join(uploadsDir, "2026", "03")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "img.png"), []byte("img"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Reset(dbPath, uploadsDir, dataDir); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	info, err := os.Stat(uploadsDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("uploads dir should survive the reset: %v", err)
	}
	entries, _ := os.ReadDir(uploadsDir)
	if len(entries) != 0 {
		t.Errorf("uploads dir should be empty, got %d entries", len(entries))
	}
}

func TestReset_MissingUploadsDir(t *testing.T) {
	dataDir := t.TempDir()
	dbPath := filepath.Join(dataDir, "test.db")

	if err := Reset(dbPath, filepath.Join(dataDir, "nope"), dataDir); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
}

func TestMarkerRoundTrip(t *testing.T) {
	dbPath, uploadsDir, dataDir := resetFixture(t)

	before := time.Now().Add(-time.Second)
	if err := Reset(dbPath, uploadsDir, dataDir); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	last, ok, err := lastResetAt(dataDir)
	if err != nil {
		t.Fatalf("lastResetAt() error = %v", err)
	}
	if !ok {
		t.Fatal("marker should parse")
	}
	if last.Before(before.UTC()) || last.After(time.Now().Add(time.Second)) {
		t.Errorf("marker time %v out of range", last)
	}
}
