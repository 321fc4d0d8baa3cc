// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage persists uploaded post images on the local
// filesystem. Stored names, not paths, are recorded in the database.
package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/olegiv/blogo/internal/util"
)

// MaxImageWidth is the bound uploaded images are scaled down to.
// Anything smaller passes through untouched.
const MaxImageWidth = 1600

// UploadStore saves and removes uploaded images.
type UploadStore struct {
	dir string
}

// NewUploadStore creates a store rooted at dir, creating it if needed.
func NewUploadStore(dir string) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}
	return &UploadStore{dir: dir}, nil
}

// Save reads an uploaded image, bounds its size, and writes it under a
// collision-free name derived from the original filename. The returned
// name is what callers persist.
func (s *UploadStore) Save(r io.Reader, originalName string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}

	format := detectFormat(data)
	if format == "" {
		return "", fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}

	if img.Bounds().Dx() > MaxImageWidth {
		img = imaging.Resize(img, MaxImageWidth, 0, imaging.Lanczos)
	}

	encoded, err := encodeImage(img, format)
	if err != nil {
		return "", fmt.Errorf("encoding image: %w", err)
	}

	name := storedName(originalName, format)
	if err := os.WriteFile(filepath.Join(s.dir, name), encoded, 0o644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}

	return name, nil
}

// Remove deletes a stored image. Removing a name that is already gone
// is not an error.
func (s *UploadStore) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing image: %w", err)
	}
	return nil
}

// Path returns the on-disk path for a stored name.
func (s *UploadStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Dir returns the uploads directory, for serving as static files.
func (s *UploadStore) Dir() string {
	return s.dir
}

// storedName builds "<slug>-<uuid>.<ext>" from the original filename.
// The slug keeps names readable; the uuid keeps them unique.
func storedName(originalName, format string) string {
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	slug := util.Slugify(base)
	if slug == "" {
		slug = "image"
	}
	return fmt.Sprintf("%s-%s.%s", slug, uuid.NewString(), format)
}

// detectFormat sniffs the image format from magic bytes.
func detectFormat(data []byte) string {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return "jpg"
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return "png"
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return "gif"
	default:
		return ""
	}
}

// encodeImage encodes to the detected format.
func encodeImage(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return nil, err
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return buf.Bytes(), nil
}
