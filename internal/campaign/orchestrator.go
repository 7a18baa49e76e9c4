// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// Package campaign sequences one newsletter dispatch: selection, rendering,
// campaign creation, content upload, send, and sent-marker bookkeeping.
//
// Every collaborator arrives through the constructor; the orchestrator
// holds no ambient global state. Each invocation runs the state machine
// Idle → Selecting → Rendering → CreatingCampaign → SettingContent →
// Sending → Sent, with Failed terminal from any stage. Nothing is retried:
// a failed send is re-triggered explicitly by the caller, and a campaign
// created but never sent stays a Mailchimp draft, untracked locally.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsletterforge/internal/logging"
	"github.com/tomtom215/newsletterforge/internal/mailchimp"
	"github.com/tomtom215/newsletterforge/internal/metrics"
	"github.com/tomtom215/newsletterforge/internal/models"
)

// ContentSelector resolves the newsletter content set.
type ContentSelector interface {
	Select(ctx context.Context, settings models.Settings) (models.NewsletterData, error)
}

// Renderer produces the newsletter HTML document.
type Renderer interface {
	Render(data models.NewsletterData, settings models.Settings) (string, error)
}

// SettingsSource reads the current settings document.
type SettingsSource interface {
	Load() (models.Settings, error)
}

// MarkerWriter records sent-markers after a verified send.
type MarkerWriter interface {
	MarkSent(postIDs []int64, sentAt time.Time) error
}

// Orchestrator drives the dispatch pipeline.
type Orchestrator struct {
	selector ContentSelector
	renderer Renderer
	client   mailchimp.API
	settings SettingsSource
	markers  MarkerWriter
	site     models.SiteInfo
	logger   zerolog.Logger

	now func() time.Time
}

// New creates an orchestrator with explicit dependencies.
func New(selector ContentSelector, renderer Renderer, client mailchimp.API, settings SettingsSource, markers MarkerWriter, site models.SiteInfo) *Orchestrator {
	return &Orchestrator{
		selector: selector,
		renderer: renderer,
		client:   client,
		settings: settings,
		markers:  markers,
		site:     site,
		logger:   logging.With().Str("component", "orchestrator").Logger(),
		now:      time.Now,
	}
}

// assemble runs Selecting → Rendering. On failure the returned stage names
// the step that died.
func (o *Orchestrator) assemble(ctx context.Context) (models.NewsletterData, string, models.CampaignState, error) {
	settings, err := o.settings.Load()
	if err != nil {
		return models.NewsletterData{}, "", models.StateSelecting, fmt.Errorf("load settings: %w", err)
	}

	data, err := o.selector.Select(ctx, settings)
	if err != nil {
		return models.NewsletterData{}, "", models.StateSelecting, err
	}
	data.Site = o.site

	if len(data.Posts) == 0 && len(data.Events) == 0 {
		return models.NewsletterData{}, "", models.StateSelecting, mailchimp.NewValidationError("no content available for the newsletter")
	}

	html, err := o.renderer.Render(data, settings)
	if err != nil {
		return models.NewsletterData{}, "", models.StateRendering, err
	}
	return data, html, models.StateRendering, nil
}

// createStage attributes a campaign-creation failure: the content PUT runs
// after the campaign exists, so its failure belongs to the content stage.
func createStage(err error) models.CampaignState {
	var uploadErr *mailchimp.ContentUploadError
	if errors.As(err, &uploadErr) {
		return models.StateSettingContent
	}
	return models.StateCreatingCampaign
}

// Preview renders the newsletter without touching Mailchimp or the
// sent-markers. The previewed content can diverge from a later send if the
// underlying data changes in between; selection always happens fresh at
// send time.
func (o *Orchestrator) Preview(ctx context.Context) (string, error) {
	_, html, _, err := o.assemble(ctx)
	if err != nil {
		return "", err
	}
	metrics.PreviewsGenerated.Inc()
	return html, nil
}

// Send dispatches a real campaign. On verified success, and only then,
// every included post is flagged with a sent-marker.
func (o *Orchestrator) Send(ctx context.Context, subject string) (*models.SendResult, error) {
	if subject == "" {
		return o.failed(models.StateIdle, mailchimp.NewValidationError("subject must not be empty"))
	}

	data, html, stage, err := o.assemble(ctx)
	if err != nil {
		return o.failed(stage, err)
	}

	campaignID, err := o.client.CreateCampaign(ctx, subject, html)
	if err != nil {
		return o.failed(createStage(err), err)
	}

	if err := o.client.SendCampaign(ctx, campaignID); err != nil {
		return o.failed(models.StateSending, err)
	}

	sentAt := o.now()
	postIDs := data.PostIDs()
	if err := o.markers.MarkSent(postIDs, sentAt); err != nil {
		// The campaign is out; surface the bookkeeping failure loudly but
		// report the send as completed.
		o.logger.Error().Err(err).Str("campaign_id", campaignID).Msg("Campaign sent but marking posts failed")
	}

	metrics.CampaignsSent.WithLabelValues("real").Inc()
	o.logger.Info().
		Str("campaign_id", campaignID).
		Str("subject", subject).
		Int("posts", len(postIDs)).
		Msg("Campaign dispatched")

	return &models.SendResult{
		CampaignID:  campaignID,
		State:       models.StateSent,
		PostsMarked: postIDs,
		CompletedAt: sentAt,
	}, nil
}

// SendTest dispatches a test campaign to the given recipients. The test
// path never touches sent-markers, regardless of outcome.
func (o *Orchestrator) SendTest(ctx context.Context, subject string, emails []string) (*models.SendResult, error) {
	if subject == "" {
		return o.failed(models.StateIdle, mailchimp.NewValidationError("subject must not be empty"))
	}
	if len(emails) == 0 {
		return o.failed(models.StateIdle, mailchimp.NewValidationError("no test recipients provided"))
	}

	_, html, stage, err := o.assemble(ctx)
	if err != nil {
		return o.failed(stage, err)
	}

	campaignID, err := o.client.CreateTestCampaign(ctx, subject, html)
	if err != nil {
		return o.failed(createStage(err), err)
	}

	if err := o.client.SendTestEmail(ctx, campaignID, emails); err != nil {
		return o.failed(models.StateSending, err)
	}

	metrics.CampaignsSent.WithLabelValues("test").Inc()
	o.logger.Info().
		Str("campaign_id", campaignID).
		Int("recipients", len(emails)).
		Msg("Test campaign dispatched")

	return &models.SendResult{
		CampaignID:  campaignID,
		State:       models.StateSent,
		CompletedAt: o.now(),
	}, nil
}

// ListMembers returns the subscribed members of the configured list.
func (o *Orchestrator) ListMembers(ctx context.Context, limit int) ([]models.Member, error) {
	return o.client.GetListMembers(ctx, limit)
}

// failed builds the terminal failure result. The client's last-error
// message travels verbatim inside err.
func (o *Orchestrator) failed(stage models.CampaignState, err error) (*models.SendResult, error) {
	metrics.CampaignsFailed.WithLabelValues(string(stage)).Inc()
	o.logger.Warn().Err(err).Str("stage", string(stage)).Msg("Campaign dispatch failed")

	return &models.SendResult{
		State:       models.StateFailed,
		FailedAt:    stage,
		Error:       err.Error(),
		CompletedAt: o.now(),
	}, err
}
