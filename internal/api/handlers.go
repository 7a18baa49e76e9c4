// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// handlers.go - HTTP handlers for the newsletter pipeline
//
// Endpoints:
//   - newsletter preview, send, test-send
//   - member listing and subscription check
//   - settings read/write
//   - post and sponsor search for selection UIs
//   - Mailchimp connectivity check and campaign reports

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/newsletterforge/internal/mailchimp"
	"github.com/tomtom215/newsletterforge/internal/models"
)

// Dispatcher runs the campaign pipeline.
type Dispatcher interface {
	Preview(ctx context.Context) (string, error)
	Send(ctx context.Context, subject string) (*models.SendResult, error)
	SendTest(ctx context.Context, subject string, emails []string) (*models.SendResult, error)
	ListMembers(ctx context.Context, limit int) ([]models.Member, error)
}

// ContentSearcher searches the host CMS for selection UIs.
type ContentSearcher interface {
	SearchPosts(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
	SearchSponsors(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
	Ping(ctx context.Context) error
}

// SettingsRepository reads and writes the settings document.
type SettingsRepository interface {
	Load() (models.Settings, error)
	Save(settings models.Settings) error
}

// Server holds the handler dependencies.
type Server struct {
	dispatcher Dispatcher
	client     mailchimp.API
	search     ContentSearcher
	settings   SettingsRepository
}

// NewServer creates the API server with explicit dependencies.
func NewServer(dispatcher Dispatcher, client mailchimp.API, search ContentSearcher, settings SettingsRepository) *Server {
	return &Server{
		dispatcher: dispatcher,
		client:     client,
		search:     search,
		settings:   settings,
	}
}

// handleHealth reports overall service health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleHealthLive is the liveness probe.
func (s *Server) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleHealthReady is the readiness probe: the host CMS must answer.
func (s *Server) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	if err := s.search.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "host CMS unreachable", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handlePreview renders the newsletter without dispatching anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	html, err := s.dispatcher.Preview(r.Context())
	if err != nil {
		status, code := classifyError(err)
		respondError(w, status, code, err.Error(), err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"html": html})
}

// sendRequest is the body of send and test-send calls.
type sendRequest struct {
	Subject string   `json:"subject" validate:"required,max=200"`
	Emails  []string `json:"emails,omitempty"`
}

// handleSend dispatches a real campaign and marks included posts sent.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	result, err := s.dispatcher.Send(r.Context(), req.Subject)
	if err != nil {
		status, code := classifyError(err)
		resp := models.NewErrorResponse(code, err.Error())
		resp.Data = result
		respondJSON(w, status, &resp)
		return
	}
	respondSuccess(w, http.StatusOK, result)
}

// handleTest dispatches a test campaign; sent-markers stay untouched.
func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	result, err := s.dispatcher.SendTest(r.Context(), req.Subject, req.Emails)
	if err != nil {
		status, code := classifyError(err)
		resp := models.NewErrorResponse(code, err.Error())
		resp.Data = result
		respondJSON(w, status, &resp)
		return
	}
	respondSuccess(w, http.StatusOK, result)
}

// handleMembers lists subscribed members of the configured list.
func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 100)
	if limit < 1 || limit > 1000 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be 1-1000", nil)
		return
	}

	members, err := s.dispatcher.ListMembers(r.Context(), limit)
	if err != nil {
		status, code := classifyError(err)
		respondError(w, status, code, err.Error(), err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"members": members,
		"count":   len(members),
	})
}

// handleMemberCheck reports the subscription status of one email address.
func (s *Server) handleMemberCheck(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "email parameter is required", nil)
		return
	}

	status, err := s.client.CheckSubscription(r.Context(), email)
	if err != nil {
		httpStatus, code := classifyError(err)
		respondError(w, httpStatus, code, err.Error(), err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{
		"email":  email,
		"status": status,
	})
}

// handleSettingsGet returns the current settings document. The API key is
// masked; it is write-only through this surface.
func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.Load()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load settings", err)
		return
	}

	if settings.MailchimpAPIKey != "" {
		settings.MailchimpAPIKey = maskKey(settings.MailchimpAPIKey)
	}
	respondSuccess(w, http.StatusOK, settings)
}

// settingsValidation carries the validated subset of a settings update.
type settingsValidation struct {
	MailchimpAPIKey string `validate:"omitempty,mailchimp_key"`
	ButtonColor     string `validate:"omitempty,hexcolor"`
	HeaderImage     string `validate:"omitempty,url"`
	FacebookURL     string `validate:"omitempty,url"`
	InstagramURL    string `validate:"omitempty,url"`
}

// handleSettingsPut replaces the settings document. A masked API key in
// the payload keeps the stored key.
func (s *Server) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	var incoming models.Settings
	if err := decodeJSONBody(r, &incoming); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", err)
		return
	}

	current, err := s.settings.Load()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load settings", err)
		return
	}
	if isMaskedKey(incoming.MailchimpAPIKey) {
		incoming.MailchimpAPIKey = current.MailchimpAPIKey
	}

	check := settingsValidation{
		MailchimpAPIKey: incoming.MailchimpAPIKey,
		ButtonColor:     incoming.ButtonBackgroundColor,
		HeaderImage:     incoming.HeaderImage,
		FacebookURL:     incoming.FacebookURL,
		InstagramURL:    incoming.InstagramURL,
	}
	if apiErr := validateRequest(&check); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	if err := s.settings.Save(incoming); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to save settings", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "saved"})
}

// handleMailchimpPing verifies API key and connectivity.
func (s *Server) handleMailchimpPing(w http.ResponseWriter, r *http.Request) {
	if err := s.client.Ping(r.Context()); err != nil {
		status, code := classifyError(err)
		respondError(w, status, code, s.client.LastError(), err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "connected"})
}

// handleMailchimpLists returns the account's audiences for list selection.
func (s *Server) handleMailchimpLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.client.GetLists(r.Context())
	if err != nil {
		status, code := classifyError(err)
		respondError(w, status, code, err.Error(), err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"lists": lists,
		"count": len(lists),
	})
}

// handleCampaignReport returns Mailchimp delivery statistics.
func (s *Server) handleCampaignReport(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")
	if campaignID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "campaign id is required", nil)
		return
	}

	report, err := s.client.GetCampaignReport(r.Context(), campaignID)
	if err != nil {
		status, code := classifyError(err)
		respondError(w, status, code, err.Error(), err)
		return
	}
	respondSuccess(w, http.StatusOK, report)
}

// handleSearchPosts searches posts for the selection UI.
func (s *Server) handleSearchPosts(w http.ResponseWriter, r *http.Request) {
	s.handleSearch(w, r, s.search.SearchPosts)
}

// handleSearchSponsors searches sponsors and partners.
func (s *Server) handleSearchSponsors(w http.ResponseWriter, r *http.Request) {
	s.handleSearch(w, r, s.search.SearchSponsors)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, int) ([]models.SearchResult, error)) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "query must be at least 2 characters", nil)
		return
	}

	results, err := fn(r.Context(), query, getIntParam(r, "limit", 20))
	if err != nil {
		respondError(w, http.StatusBadGateway, "TRANSPORT_ERROR", err.Error(), err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

const keyMask = "********"

// maskKey hides all but the region suffix of an API key.
func maskKey(key string) string {
	if idx := strings.LastIndex(key, "-"); idx >= 0 {
		return keyMask + key[idx:]
	}
	return keyMask
}

// isMaskedKey reports whether the payload carries a masked key back.
func isMaskedKey(key string) bool {
	return strings.HasPrefix(key, keyMask)
}
