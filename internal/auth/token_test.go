// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer([]byte("test-secret-key-for-token-signing"))

	token, err := ti.Generate(42, PurposeConfirm, time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	id, ok := ti.Extract(token, PurposeConfirm)
	if !ok {
		t.Fatal("Extract() failed for a fresh token")
	}
	if id != 42 {
		t.Errorf("Extract() = %d, want 42", id)
	}
}

func TestTokenExpired(t *testing.T) {
	ti := NewTokenIssuer([]byte("test-secret-key-for-token-signing"))

	token, err := ti.Generate(42, PurposeReset, -time.Second)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, ok := ti.Extract(token, PurposeReset); ok {
		t.Error("Extract() accepted an expired token")
	}
}

func TestTokenInvalid(t *testing.T) {
	ti := NewTokenIssuer([]byte("test-secret-key-for-token-signing"))

	other := NewTokenIssuer([]byte("a-completely-different-secret"))
	tampered, err := other.Generate(42, PurposeConfirm, time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"malformed", "header.payload.signature"},
		{"wrong secret", tampered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ti.Extract(tt.token, PurposeConfirm); ok {
				t.Error("Extract() accepted an invalid token")
			}
		})
	}
}

func TestTokenPurposeMismatch(t *testing.T) {
	ti := NewTokenIssuer([]byte("test-secret-key-for-token-signing"))

	token, err := ti.Generate(42, PurposeConfirm, time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, ok := ti.Extract(token, PurposeReset); ok {
		t.Error("confirmation token verified as reset token")
	}
}

func TestTokenCheck(t *testing.T) {
	ti := NewTokenIssuer([]byte("test-secret-key-for-token-signing"))

	token, err := ti.Generate(7, PurposeConfirm, time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !ti.Check(token, PurposeConfirm, 7) {
		t.Error("Check() rejected the issuing user")
	}
	if ti.Check(token, PurposeConfirm, 8) {
		t.Error("Check() accepted a different user")
	}
	if ti.Check("garbage", PurposeConfirm, 7) {
		t.Error("Check() accepted a garbage token")
	}
}
