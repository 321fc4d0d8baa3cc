// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mail sends transactional email: account confirmation,
// password resets and the weekly newsletter digest.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"
)

// Message is a single outbound mail.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer delivers messages. Implementations must be safe for
// concurrent use; handlers send from request goroutines.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds SMTP delivery settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// Sender is the From address on all outbound mail.
	Sender string
}

// SMTPMailer delivers mail over SMTP with STARTTLS.
type SMTPMailer struct {
	client *gomail.Client
	sender string
}

// NewSMTPMailer creates a mailer connected to the configured relay.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating mail client: %w", err)
	}

	return &SMTPMailer{client: client, sender: cfg.Sender}, nil
}

// Send delivers a single message.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	mail := gomail.NewMsg()
	if err := mail.From(m.sender); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := mail.To(msg.To); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	mail.Subject(msg.Subject)
	mail.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	if msg.HTMLBody != "" {
		mail.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
	}

	if err := m.client.DialAndSendWithContext(ctx, mail); err != nil {
		return fmt.Errorf("sending mail to %s: %w", msg.To, err)
	}

	slog.Info("mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// LogMailer logs messages instead of delivering them. It is the
// default when no SMTP relay is configured, so development setups can
// read confirmation links straight from the log.
type LogMailer struct{}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// Send logs the message.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	slog.Info("mail (not delivered, no SMTP configured)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.TextBody,
	)
	return nil
}

var (
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = (*LogMailer)(nil)
)
