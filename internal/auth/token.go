// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. A token issued for one purpose never verifies for
// another.
const (
	PurposeConfirm = "confirm"
	PurposeReset   = "reset"
)

// Default lifetimes per purpose.
const (
	ConfirmTokenTTL = 7 * 24 * time.Hour
	ResetTokenTTL   = time.Hour
)

// TokenIssuer issues and verifies HS256-signed tokens that encode a
// user identifier and an intended purpose.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer creates a token issuer with the given signing secret.
func NewTokenIssuer(secret []byte) *TokenIssuer {
	return &TokenIssuer{secret: secret}
}

// Generate creates a signed token for the user with the given purpose
// and time-to-live.
func (ti *TokenIssuer) Generate(userID int64, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     strconv.FormatInt(userID, 10),
		"purpose": purpose,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Extract verifies the token's signature, expiry and purpose, and
// returns the encoded user ID. It returns (0, false) for any malformed,
// tampered, expired or wrong-purpose token; it never panics on bad
// input.
func (ti *TokenIssuer) Extract(tokenString, purpose string) (int64, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}

	if p, _ := claims["purpose"].(string); p != purpose {
		return 0, false
	}

	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Check reports whether the token is valid for the given purpose and
// encodes exactly the given user. A mismatched or unverifiable token
// both count as failure.
func (ti *TokenIssuer) Check(tokenString, purpose string, userID int64) bool {
	id, ok := ti.Extract(tokenString, purpose)
	return ok && id == userID
}
