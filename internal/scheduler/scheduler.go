// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// Package scheduler triggers recurring newsletter sends on a cron expression.
//
// The scheduler is a supervised service: Serve blocks until the context is
// canceled and returns ctx.Err so suture treats shutdown as clean. Each
// firing runs one full send through the dispatcher; a failed send is
// recorded and logged but never stops the schedule.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsletterforge/internal/metrics"
	"github.com/tomtom215/newsletterforge/internal/models"
)

// Dispatcher is the subset of the campaign orchestrator the scheduler needs.
type Dispatcher interface {
	Send(ctx context.Context, subject string) (*models.SendResult, error)
}

// Config controls the schedule and the generated subject line.
type Config struct {
	// Spec is a standard 5-field cron expression.
	Spec string

	// SubjectTemplate may contain a {date} placeholder, replaced with the
	// fire date formatted as "January 2, 2006".
	SubjectTemplate string

	// SendTimeout bounds a single scheduled send. Zero means 5 minutes.
	SendTimeout time.Duration
}

// Scheduler runs newsletter sends on a cron schedule.
type Scheduler struct {
	cfg        Config
	dispatcher Dispatcher
	logger     zerolog.Logger
	now        func() time.Time
}

// New validates the cron expression and creates a scheduler.
func New(cfg Config, dispatcher Dispatcher, logger zerolog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(cfg.Spec); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cfg.Spec, err)
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Minute
	}
	return &Scheduler{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "scheduler").Logger(),
		now:        time.Now,
	}, nil
}

// Serve implements suture.Service.
func (s *Scheduler) Serve(ctx context.Context) error {
	schedule, err := cron.ParseStandard(s.cfg.Spec)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.cfg.Spec, err)
	}

	s.logger.Info().
		Str("cron", s.cfg.Spec).
		Time("next_fire", schedule.Next(s.now())).
		Msg("Scheduler started")

	for {
		next := schedule.Next(s.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("Scheduler stopped")
			return ctx.Err()
		case <-timer.C:
			s.fire(ctx, next)
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *Scheduler) String() string {
	return "newsletter-scheduler"
}

// fire runs one scheduled send.
func (s *Scheduler) fire(ctx context.Context, at time.Time) {
	subject := s.Subject(at)

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	result, err := s.dispatcher.Send(sendCtx, subject)
	if err != nil {
		metrics.ScheduledSendsTotal.WithLabelValues("failure").Inc()
		s.logger.Error().
			Err(err).
			Str("subject", subject).
			Msg("Scheduled send failed")
		return
	}

	metrics.ScheduledSendsTotal.WithLabelValues("success").Inc()
	s.logger.Info().
		Str("subject", subject).
		Str("campaign_id", result.CampaignID).
		Int("posts_marked", len(result.PostsMarked)).
		Msg("Scheduled send completed")
}

// Subject expands the subject template for the given fire time.
func (s *Scheduler) Subject(at time.Time) string {
	return strings.ReplaceAll(s.cfg.SubjectTemplate, "{date}", at.Format("January 2, 2006"))
}
