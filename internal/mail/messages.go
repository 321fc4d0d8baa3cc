// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mail

import (
	"fmt"
	"strings"

	"github.com/olegiv/blogo/internal/store"
)

// ConfirmMessage builds the account confirmation mail.
func ConfirmMessage(baseURL string, user store.User, token string) Message {
	link := fmt.Sprintf("%s/confirm/%s", strings.TrimRight(baseURL, "/"), token)
	return Message{
		To:      user.Email,
		Subject: "Confirm Your Account",
		TextBody: fmt.Sprintf(
			"Dear %s,\n\nWelcome to Blogo!\n\nTo confirm your account please click on the following link:\n\n%s\n\nSincerely,\n\nThe Blogo Team\n\nNote: replies to this email address are not monitored.\n",
			user.Username, link),
		HTMLBody: fmt.Sprintf(
			"<p>Dear %s,</p><p>Welcome to <b>Blogo</b>!</p><p>To confirm your account please <a href=%q>click here</a>.</p><p>Alternatively, you can paste the following link in your browser's address bar:</p><p>%s</p><p>Sincerely,</p><p>The Blogo Team</p><p><small>Note: replies to this email address are not monitored.</small></p>",
			user.Username, link, link),
	}
}

// ResetMessage builds the password reset mail.
func ResetMessage(baseURL string, user store.User, token string) Message {
	link := fmt.Sprintf("%s/reset/%s", strings.TrimRight(baseURL, "/"), token)
	return Message{
		To:      user.Email,
		Subject: "Reset Your Password",
		TextBody: fmt.Sprintf(
			"Dear %s,\n\nTo reset your password click on the following link:\n\n%s\n\nIf you have not requested a password reset simply ignore this message.\n\nSincerely,\n\nThe Blogo Team\n",
			user.Username, link),
		HTMLBody: fmt.Sprintf(
			"<p>Dear %s,</p><p>To reset your password <a href=%q>click here</a>.</p><p>Alternatively, you can paste the following link in your browser's address bar:</p><p>%s</p><p>If you have not requested a password reset simply ignore this message.</p><p>Sincerely,</p><p>The Blogo Team</p>",
			user.Username, link, link),
	}
}

// DigestMessage builds the weekly newsletter digest listing posts
// published since the last run.
func DigestMessage(baseURL string, user store.User, posts []store.Post) Message {
	base := strings.TrimRight(baseURL, "/")

	var text, html strings.Builder
	fmt.Fprintf(&text, "Dear %s,\n\nNew posts this week:\n\n", user.Username)
	fmt.Fprintf(&html, "<p>Dear %s,</p><p>New posts this week:</p><ul>", user.Username)
	for _, p := range posts {
		link := fmt.Sprintf("%s/post/%d", base, p.ID)
		fmt.Fprintf(&text, "- %s\n  %s\n", p.Title, link)
		fmt.Fprintf(&html, "<li><a href=%q>%s</a></li>", link, p.Title)
	}
	text.WriteString("\nSincerely,\n\nThe Blogo Team\n")
	html.WriteString("</ul><p>Sincerely,</p><p>The Blogo Team</p>")

	return Message{
		To:       user.Email,
		Subject:  "Your Weekly Blogo Digest",
		TextBody: text.String(),
		HTMLBody: html.String(),
	}
}
