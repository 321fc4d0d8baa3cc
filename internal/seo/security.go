// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"strings"
	"time"
)

// SecurityTxtConfig holds configuration for security.txt generation
// (RFC 9116).
type SecurityTxtConfig struct {
	// Contact is required. Email URI, URL or phone for reporting
	// vulnerabilities. Multiple contacts may be provided.
	Contact []string

	// Expires is required. The date after which this file should be
	// considered stale. Defaults to one year from now when zero.
	Expires time.Time

	// Canonical is optional. The canonical URL for this security.txt.
	Canonical string

	// Policy is optional. Link to the security policy.
	Policy string

	// PreferredLanguages is optional. Languages spoken by the team.
	PreferredLanguages string
}

// SecurityTxtBuilder builds security.txt content according to RFC 9116.
type SecurityTxtBuilder struct {
	config SecurityTxtConfig
}

// NewSecurityTxtBuilder creates a new security.txt builder.
func NewSecurityTxtBuilder(config SecurityTxtConfig) *SecurityTxtBuilder {
	return &SecurityTxtBuilder{config: config}
}

// Build generates the security.txt content.
func (b *SecurityTxtBuilder) Build() string {
	var sb strings.Builder

	for _, contact := range b.config.Contact {
		if contact != "" {
			sb.WriteString("Contact: ")
			sb.WriteString(contact)
			sb.WriteString("\n")
		}
	}

	expires := b.config.Expires
	if expires.IsZero() {
		expires = time.Now().AddDate(1, 0, 0)
	}
	sb.WriteString("Expires: ")
	sb.WriteString(expires.Format(time.RFC3339))
	sb.WriteString("\n")

	if b.config.Canonical != "" {
		sb.WriteString("Canonical: ")
		sb.WriteString(b.config.Canonical)
		sb.WriteString("\n")
	}

	if b.config.Policy != "" {
		sb.WriteString("Policy: ")
		sb.WriteString(b.config.Policy)
		sb.WriteString("\n")
	}

	if b.config.PreferredLanguages != "" {
		sb.WriteString("Preferred-Languages: ")
		sb.WriteString(b.config.PreferredLanguages)
		sb.WriteString("\n")
	}

	return sb.String()
}

// GenerateSecurityTxt is a convenience function to generate security.txt
// content for a single contact.
func GenerateSecurityTxt(contact string, expires time.Time) string {
	builder := NewSecurityTxtBuilder(SecurityTxtConfig{
		Contact: []string{contact},
		Expires: expires,
	})
	return builder.Build()
}
