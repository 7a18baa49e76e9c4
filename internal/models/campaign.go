// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// Package models provides data structures for the Newsletterforge application.
//
// campaign.go - Campaign Dispatch Models
//
// Campaigns are Mailchimp-side entities; nothing here is persisted locally
// except the per-post sent-marker, which lives in the store package.
package models

import (
	"time"
)

// CampaignState tracks a single dispatch invocation through the pipeline.
// State is per-invocation only and never persisted.
type CampaignState string

const (
	StateIdle             CampaignState = "idle"
	StateSelecting        CampaignState = "selecting"
	StateRendering        CampaignState = "rendering"
	StateCreatingCampaign CampaignState = "creating_campaign"
	StateSettingContent   CampaignState = "setting_content"
	StateSending          CampaignState = "sending"
	StateSent             CampaignState = "sent"
	StateFailed           CampaignState = "failed"
)

// SendResult is the terminal outcome of a send or test-send invocation.
type SendResult struct {
	CampaignID  string        `json:"campaign_id,omitempty"`
	State       CampaignState `json:"state"`
	Error       string        `json:"error,omitempty"`
	FailedAt    CampaignState `json:"failed_at,omitempty"`
	PostsMarked []int64       `json:"posts_marked,omitempty"`
	CompletedAt time.Time     `json:"completed_at"`
}

// Member is a subscribed mailing list member.
type Member struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
}

// CampaignReport holds the delivery statistics Mailchimp reports for a
// sent campaign.
type CampaignReport struct {
	CampaignID   string    `json:"campaign_id"`
	EmailsSent   int       `json:"emails_sent"`
	Opens        int       `json:"opens"`
	UniqueOpens  int       `json:"unique_opens"`
	Clicks       int       `json:"clicks"`
	UniqueClicks int       `json:"unique_clicks"`
	Unsubscribes int       `json:"unsubscribes"`
	Bounces      int       `json:"bounces"`
	SendTime     time.Time `json:"send_time,omitempty"`
}

// SearchResult is a lightweight hit from the post or sponsor search
// endpoints, used by selection UIs.
type SearchResult struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type,omitempty"`
	Published string `json:"published,omitempty"`
}
