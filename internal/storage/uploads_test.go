// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestUploadStore_SaveAndRemove(t *testing.T) {
	store, err := NewUploadStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewUploadStore: %v", err)
	}

	name, err := store.Save(bytes.NewReader(pngBytes(t, 100, 80)), "My Photo.PNG")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if !strings.HasPrefix(name, "my-photo-") || !strings.HasSuffix(name, ".png") {
		t.Errorf("stored name = %q, want my-photo-<uuid>.png", name)
	}
	if _, err := os.Stat(store.Path(name)); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}

	if err := store.Remove(name); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(store.Path(name)); !os.IsNotExist(err) {
		t.Error("file still present after Remove")
	}
	// Removing again is a no-op.
	if err := store.Remove(name); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestUploadStore_ResizesWideImages(t *testing.T) {
	store, err := NewUploadStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewUploadStore: %v", err)
	}

	name, err := store.Save(bytes.NewReader(pngBytes(t, MaxImageWidth+400, 100)), "wide.png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	img, err := imaging.Open(store.Path(name))
	if err != nil {
		t.Fatalf("opening stored image: %v", err)
	}
	if got := img.Bounds().Dx(); got != MaxImageWidth {
		t.Errorf("stored width = %d, want %d", got, MaxImageWidth)
	}
}

func TestUploadStore_RejectsNonImages(t *testing.T) {
	store, err := NewUploadStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewUploadStore: %v", err)
	}

	if _, err := store.Save(strings.NewReader("#!/bin/sh\nrm -rf /\n"), "evil.png"); err == nil {
		t.Error("Save should reject non-image data")
	}
}

func TestUploadStore_UniqueNames(t *testing.T) {
	store, err := NewUploadStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewUploadStore: %v", err)
	}

	data := pngBytes(t, 10, 10)
	a, err := store.Save(bytes.NewReader(data), "same.png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := store.Save(bytes.NewReader(data), "same.png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if a == b {
		t.Errorf("two uploads of the same filename collided: %q", a)
	}
}
