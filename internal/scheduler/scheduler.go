// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the background cron jobs: the weekly newsletter
// digest and nightly pruning of old event log entries.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/blogo/internal/mail"
	"github.com/olegiv/blogo/internal/model"
	"github.com/olegiv/blogo/internal/service"
	"github.com/olegiv/blogo/internal/store"
)

const (
	// digestWindow is how far back the weekly digest looks for posts.
	digestWindow = 7 * 24 * time.Hour

	// eventRetention is how long event log entries are kept.
	eventRetention = 90 * 24 * time.Hour
)

// Scheduler handles recurring background jobs.
type Scheduler struct {
	db      *sql.DB
	cron    *cron.Cron
	logger  *slog.Logger
	mailer  mail.Mailer
	events  *service.EventService
	baseURL string
}

// New creates a new scheduler instance.
func New(db *sql.DB, logger *slog.Logger, mailer mail.Mailer, events *service.EventService, baseURL string) *Scheduler {
	return &Scheduler{
		db:      db,
		cron:    cron.New(),
		logger:  logger,
		mailer:  mailer,
		events:  events,
		baseURL: baseURL,
	}
}

// Start registers the jobs and begins the cron loop. The digest goes out
// Monday mornings; event pruning runs nightly.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 8 * * 1", func() {
		if err := s.SendDigest(context.Background()); err != nil {
			s.logger.Error("newsletter digest failed", "error", err)
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("0 3 * * *", func() {
		if err := s.PruneEvents(context.Background()); err != nil {
			s.logger.Error("event pruning failed", "error", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// SendDigest mails the past week's posts to newsletter subscribers.
// A week with no posts sends nothing.
func (s *Scheduler) SendDigest(ctx context.Context) error {
	queries := store.New(s.db)

	posts, err := queries.ListPostsSince(ctx, time.Now().Add(-digestWindow))
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		s.logger.Info("newsletter digest skipped, no new posts")
		return nil
	}

	subscribers, err := queries.ListNewsletterSubscribers(ctx)
	if err != nil {
		return err
	}

	sent := 0
	for _, sub := range subscribers {
		msg := mail.DigestMessage(s.baseURL, sub, posts)
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.Error("digest delivery failed",
				"user_id", sub.ID,
				"email", sub.Email,
				"error", err,
			)
			continue
		}
		sent++
	}

	s.logger.Info("newsletter digest sent", "posts", len(posts), "recipients", sent)
	_ = s.events.LogSystemEvent(ctx, model.EventLevelInfo, "newsletter digest sent", nil, "", map[string]any{
		"posts":      len(posts),
		"recipients": sent,
	})
	return nil
}

// PruneEvents deletes event log entries past the retention window.
func (s *Scheduler) PruneEvents(ctx context.Context) error {
	deleted, err := s.events.DeleteOldEvents(ctx, eventRetention)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("pruned old events", "deleted", deleted)
	}
	return nil
}
