// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

/*
client.go - Mailchimp v3 REST API Client

This file implements the synchronous client for the Mailchimp marketing API.
It covers campaign creation, content upload, send and test-send actions, list
and member reads, and subscription lookups.

API Reference: https://mailchimp.com/developer/marketing/api/
*/

package mailchimp

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // Mailchimp's member-lookup key is defined as md5(lowercased email)
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/newsletterforge/internal/logging"
	"github.com/tomtom215/newsletterforge/internal/metrics"
	"github.com/tomtom215/newsletterforge/internal/models"
)

// Last-error codes surfaced through LastErrorCode.
const (
	ErrCodeMissingAPIKey    = "missing_api_key"
	ErrCodeMissingListID    = "missing_list_id"
	ErrCodeTransportError   = "transport_error"
	ErrCodeHTTPError        = "http_error"
	ErrCodeUnexpectedStatus = "unexpected_status"
)

// API defines the Mailchimp operations used by the campaign orchestrator.
// Both Client and BreakerClient implement this interface.
type API interface {
	Ping(ctx context.Context) error
	GetLists(ctx context.Context) ([]ListInfo, error)
	GetListInfo(ctx context.Context) (*ListInfo, error)
	GetListMembers(ctx context.Context, count int) ([]models.Member, error)
	CreateCampaign(ctx context.Context, subject, html string) (string, error)
	CreateTestCampaign(ctx context.Context, subject, html string) (string, error)
	SendCampaign(ctx context.Context, campaignID string) error
	CreateAndSendCampaign(ctx context.Context, subject, html string) (string, error)
	SendTestEmail(ctx context.Context, campaignID string, emails []string) error
	CheckSubscription(ctx context.Context, email string) (string, error)
	GetCampaignReport(ctx context.Context, campaignID string) (*models.CampaignReport, error)
	LastError() string
	LastErrorCode() string
}

// Ensure Client implements API
var _ API = (*Client)(nil)

// CredentialSource yields the current API key and list ID. Credentials are
// read per call so settings changes take effect without a restart.
type CredentialSource interface {
	MailchimpCredentials() (apiKey, listID string, err error)
}

// StaticCredentials is a CredentialSource with fixed values, used in tests
// and single-tenant deployments.
type StaticCredentials struct {
	APIKey string
	ListID string
}

// MailchimpCredentials returns the fixed credentials.
func (s StaticCredentials) MailchimpCredentials() (string, string, error) {
	return s.APIKey, s.ListID, nil
}

// Config holds client construction parameters.
type Config struct {
	// FromName and ReplyTo populate campaign settings.
	FromName string
	ReplyTo  string

	// Timeout bounds every HTTP request. Default: 30s.
	Timeout time.Duration

	// RatePerSecond is the client-side request rate cap. Default: 5.
	RatePerSecond float64

	// BaseURLOverride replaces the region-derived base URL (tests only).
	BaseURLOverride string
}

// Client provides access to the Mailchimp v3 REST API.
//
// Every failing call records a human-readable last-error string so callers
// can surface it without unwrapping the error chain.
type Client struct {
	creds      CredentialSource
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger

	mu          sync.Mutex
	lastErr     string
	lastErrCode string
}

// ListInfo is the subset of Mailchimp list metadata the service reads.
type ListInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"stats_member_count"`
}

// NewClient creates a Mailchimp API client.
func NewClient(creds CredentialSource, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}

	return &Client{
		creds:      creds,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		logger:     logging.With().Str("component", "mailchimp").Logger(),
	}
}

// BaseURL derives the API base URL from the key's region suffix, the
// substring after the last "-": a key ending in "-us21" yields
// https://us21.api.mailchimp.com/3.0/.
func BaseURL(apiKey string) (string, error) {
	idx := strings.LastIndex(apiKey, "-")
	if idx < 0 || idx == len(apiKey)-1 {
		return "", ErrInvalidAPIKey
	}
	region := apiKey[idx+1:]
	return fmt.Sprintf("https://%s.api.mailchimp.com/3.0/", region), nil
}

// LastError returns the message of the most recent failure, empty if the
// last call succeeded.
func (c *Client) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// LastErrorCode returns the machine-readable code of the most recent failure.
func (c *Client) LastErrorCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErrCode
}

func (c *Client) setLastError(code, msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.lastErrCode = code
	c.mu.Unlock()
}

func (c *Client) clearLastError() {
	c.mu.Lock()
	c.lastErr = ""
	c.lastErrCode = ""
	c.mu.Unlock()
}

// credentials resolves and validates the current API key and list ID.
// requireList is false for endpoints that are list-independent (ping).
func (c *Client) credentials(requireList bool) (apiKey, listID string, err error) {
	apiKey, listID, err = c.creds.MailchimpCredentials()
	if err != nil {
		c.setLastError(ErrCodeMissingAPIKey, err.Error())
		return "", "", err
	}
	if apiKey == "" {
		c.setLastError(ErrCodeMissingAPIKey, ErrMissingAPIKey.Error())
		return "", "", ErrMissingAPIKey
	}
	if requireList && listID == "" {
		c.setLastError(ErrCodeMissingListID, ErrMissingListID.Error())
		return "", "", ErrMissingListID
	}
	return apiKey, listID, nil
}

// request issues one authenticated JSON exchange with the API.
//
// A 2xx response has its body decoded into out (when out is non-nil); a 204
// is success with no body. A 4xx/5xx becomes an *APIError built from the
// response detail/title fields; transport failures become *TransportError.
func (c *Client) request(ctx context.Context, method, endpoint, apiKey string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		c.setLastError(ErrCodeTransportError, err.Error())
		return &TransportError{Err: err}
	}

	base := c.cfg.BaseURLOverride
	if base == "" {
		var err error
		base, err = BaseURL(apiKey)
		if err != nil {
			c.setLastError(ErrCodeMissingAPIKey, err.Error())
			return err
		}
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	url := strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte("user:" + apiKey))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.MailchimpRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		c.setLastError(ErrCodeTransportError, fmt.Sprintf("request to Mailchimp failed: %v", err))
		metrics.MailchimpRequestErrors.WithLabelValues(ErrCodeTransportError).Inc()
		return &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent {
		c.clearLastError()
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		c.setLastError(errCodeForStatus(resp.StatusCode), apiErr.Error())
		metrics.MailchimpRequestErrors.WithLabelValues(ErrCodeHTTPError).Inc()
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("endpoint", endpoint).
			Str("detail", apiErr.Detail).
			Msg("Mailchimp API error")
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.setLastError(ErrCodeUnexpectedStatus, fmt.Sprintf("failed to decode Mailchimp response: %v", err))
			return fmt.Errorf("failed to decode Mailchimp response: %w", err)
		}
	}

	c.clearLastError()
	return nil
}

// decodeAPIError builds an APIError from an error response body.
func decodeAPIError(resp *http.Response) *APIError {
	var payload struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}
	return &APIError{Status: resp.StatusCode, Title: payload.Title, Detail: payload.Detail}
}

func errCodeForStatus(status int) string {
	if status >= 400 && status < 600 {
		return ErrCodeHTTPError
	}
	return ErrCodeUnexpectedStatus
}

// Ping checks API connectivity and key validity.
func (c *Client) Ping(ctx context.Context) error {
	apiKey, _, err := c.credentials(false)
	if err != nil {
		return err
	}
	return c.request(ctx, http.MethodGet, "ping", apiKey, nil, nil)
}

// GetLists retrieves every audience on the account, for list selection in
// the settings surface. Requires only the API key, not a configured list.
func (c *Client) GetLists(ctx context.Context) ([]ListInfo, error) {
	apiKey, _, err := c.credentials(false)
	if err != nil {
		return nil, err
	}

	var out struct {
		Lists []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Stats struct {
				MemberCount int `json:"member_count"`
			} `json:"stats"`
		} `json:"lists"`
	}
	if err := c.request(ctx, http.MethodGet, "lists?count=100", apiKey, nil, &out); err != nil {
		return nil, err
	}

	lists := make([]ListInfo, 0, len(out.Lists))
	for _, l := range out.Lists {
		lists = append(lists, ListInfo{ID: l.ID, Name: l.Name, MemberCount: l.Stats.MemberCount})
	}
	return lists, nil
}

// GetListInfo retrieves metadata for the configured list.
func (c *Client) GetListInfo(ctx context.Context) (*ListInfo, error) {
	apiKey, listID, err := c.credentials(true)
	if err != nil {
		return nil, err
	}

	var out struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Stats struct {
			MemberCount int `json:"member_count"`
		} `json:"stats"`
	}
	if err := c.request(ctx, http.MethodGet, "lists/"+listID, apiKey, nil, &out); err != nil {
		return nil, err
	}
	return &ListInfo{ID: out.ID, Name: out.Name, MemberCount: out.Stats.MemberCount}, nil
}

// GetListMembers retrieves up to count members of the configured list,
// filtered to subscribed status, with display names assembled from the
// FNAME/LNAME merge fields.
func (c *Client) GetListMembers(ctx context.Context, count int) ([]models.Member, error) {
	apiKey, listID, err := c.credentials(true)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = 100
	}

	// merge_fields values are not uniformly strings: ADDRESS and BIRTHDAY
	// arrive as objects when populated.
	var out struct {
		Members []struct {
			EmailAddress string                 `json:"email_address"`
			Status       string                 `json:"status"`
			MergeFields  map[string]interface{} `json:"merge_fields"`
		} `json:"members"`
	}
	endpoint := fmt.Sprintf("lists/%s/members?count=%d", listID, count)
	if err := c.request(ctx, http.MethodGet, endpoint, apiKey, nil, &out); err != nil {
		return nil, err
	}

	members := make([]models.Member, 0, len(out.Members))
	for _, m := range out.Members {
		if m.Status != "subscribed" {
			continue
		}
		name := strings.TrimSpace(mergeString(m.MergeFields, "FNAME") + " " + mergeString(m.MergeFields, "LNAME"))
		if name == "" {
			name = m.EmailAddress
		}
		members = append(members, models.Member{
			Email:       m.EmailAddress,
			DisplayName: name,
			Status:      m.Status,
		})
	}
	return members, nil
}

// mergeString returns the named merge field when it is a string, else "".
func mergeString(fields map[string]interface{}, key string) string {
	s, _ := fields[key].(string)
	return s
}

// campaignSettings is the settings object of a campaign create request.
type campaignSettings struct {
	SubjectLine string `json:"subject_line"`
	Title       string `json:"title"`
	FromName    string `json:"from_name"`
	ReplyTo     string `json:"reply_to"`
	AutoFooter  bool   `json:"auto_footer"`
	InlineCSS   bool   `json:"inline_css"`
}

// createCampaign creates a regular campaign and uploads its HTML content.
// auto_footer and inline_css stay disabled: the renderer supplies a complete
// HTML document with its own styles.
func (c *Client) createCampaign(ctx context.Context, subject, html string) (string, error) {
	apiKey, listID, err := c.credentials(true)
	if err != nil {
		return "", err
	}

	body := struct {
		Type       string `json:"type"`
		Recipients struct {
			ListID string `json:"list_id"`
		} `json:"recipients"`
		Settings campaignSettings `json:"settings"`
	}{
		Type: "regular",
		Settings: campaignSettings{
			SubjectLine: subject,
			Title:       subject + " - " + time.Now().Format("2006-01-02 15:04:05"),
			FromName:    c.cfg.FromName,
			ReplyTo:     c.cfg.ReplyTo,
			AutoFooter:  false,
			InlineCSS:   false,
		},
	}
	body.Recipients.ListID = listID

	var created struct {
		ID string `json:"id"`
	}
	if err := c.request(ctx, http.MethodPost, "campaigns", apiKey, body, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		c.setLastError(ErrCodeUnexpectedStatus, "campaign create response carried no id")
		return "", &APIError{Status: http.StatusOK, Detail: "campaign create response carried no id"}
	}

	content := struct {
		HTML string `json:"html"`
	}{HTML: html}
	if err := c.request(ctx, http.MethodPut, "campaigns/"+created.ID+"/content", apiKey, content, nil); err != nil {
		return "", &ContentUploadError{CampaignID: created.ID, Err: err}
	}

	c.logger.Info().Str("campaign_id", created.ID).Msg("Campaign created")
	return created.ID, nil
}

// CreateCampaign creates a regular campaign with the given subject and HTML
// body and returns its Mailchimp id.
func (c *Client) CreateCampaign(ctx context.Context, subject, html string) (string, error) {
	return c.createCampaign(ctx, subject, html)
}

// CreateTestCampaign creates a campaign whose subject and title carry a
// "[TEST] " prefix so test sends are visually distinguishable.
func (c *Client) CreateTestCampaign(ctx context.Context, subject, html string) (string, error) {
	return c.createCampaign(ctx, "[TEST] "+subject, html)
}

// SendCampaign triggers the send action. Mailchimp answers 204 on success.
func (c *Client) SendCampaign(ctx context.Context, campaignID string) error {
	apiKey, _, err := c.credentials(true)
	if err != nil {
		return err
	}
	if err := c.request(ctx, http.MethodPost, "campaigns/"+campaignID+"/actions/send", apiKey, nil, nil); err != nil {
		return err
	}
	c.logger.Info().Str("campaign_id", campaignID).Msg("Campaign sent")
	return nil
}

// CreateAndSendCampaign composes create + send, propagating the first
// failure's error.
func (c *Client) CreateAndSendCampaign(ctx context.Context, subject, html string) (string, error) {
	id, err := c.createCampaign(ctx, subject, html)
	if err != nil {
		return "", err
	}
	if err := c.SendCampaign(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// SendTestEmail triggers the test-send action for the given recipients.
// Syntactically invalid addresses are filtered; when none remain the call
// fails with a validation error before any HTTP request.
func (c *Client) SendTestEmail(ctx context.Context, campaignID string, emails []string) error {
	valid := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, err := mail.ParseAddress(e); err != nil {
			c.logger.Warn().Str("email", e).Msg("Dropping invalid test recipient")
			continue
		}
		valid = append(valid, e)
	}
	if len(valid) == 0 {
		err := NewValidationError("no valid test email addresses provided")
		c.setLastError(ErrCodeUnexpectedStatus, err.Error())
		return err
	}

	apiKey, _, err := c.credentials(true)
	if err != nil {
		return err
	}

	body := struct {
		TestEmails []string `json:"test_emails"`
		SendType   string   `json:"send_type"`
	}{TestEmails: valid, SendType: "html"}

	return c.request(ctx, http.MethodPost, "campaigns/"+campaignID+"/actions/test", apiKey, body, nil)
}

// CheckSubscription looks up list membership by the MD5 hash of the
// lowercased email, the API's required member-lookup key. Returns the member
// status, or "not subscribed" on a 404.
func (c *Client) CheckSubscription(ctx context.Context, email string) (string, error) {
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		vErr := NewValidationError("invalid email address: %s", email)
		c.setLastError(ErrCodeUnexpectedStatus, vErr.Error())
		return "", vErr
	}

	apiKey, listID, err := c.credentials(true)
	if err != nil {
		return "", err
	}

	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email)))) //nolint:gosec // API-mandated lookup key
	hash := hex.EncodeToString(sum[:])

	var out struct {
		Status string `json:"status"`
	}
	err = c.request(ctx, http.MethodGet, "lists/"+listID+"/members/"+hash, apiKey, nil, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return "not subscribed", nil
		}
		return "", err
	}
	return out.Status, nil
}

// GetCampaignReport retrieves delivery statistics for a sent campaign.
func (c *Client) GetCampaignReport(ctx context.Context, campaignID string) (*models.CampaignReport, error) {
	apiKey, _, err := c.credentials(false)
	if err != nil {
		return nil, err
	}

	var out struct {
		ID         string `json:"id"`
		EmailsSent int    `json:"emails_sent"`
		Opens      struct {
			OpensTotal  int `json:"opens_total"`
			UniqueOpens int `json:"unique_opens"`
		} `json:"opens"`
		Clicks struct {
			ClicksTotal      int `json:"clicks_total"`
			UniqueClicks     int `json:"unique_clicks"`
			UniqueSubscriber int `json:"unique_subscriber_clicks"`
		} `json:"clicks"`
		Unsubscribed int `json:"unsubscribed"`
		Bounces      struct {
			HardBounces int `json:"hard_bounces"`
			SoftBounces int `json:"soft_bounces"`
		} `json:"bounces"`
		SendTime time.Time `json:"send_time"`
	}
	if err := c.request(ctx, http.MethodGet, "reports/"+campaignID, apiKey, nil, &out); err != nil {
		return nil, err
	}

	return &models.CampaignReport{
		CampaignID:   out.ID,
		EmailsSent:   out.EmailsSent,
		Opens:        out.Opens.OpensTotal,
		UniqueOpens:  out.Opens.UniqueOpens,
		Clicks:       out.Clicks.ClicksTotal,
		UniqueClicks: out.Clicks.UniqueClicks,
		Unsubscribes: out.Unsubscribed,
		Bounces:      out.Bounces.HardBounces + out.Bounces.SoftBounces,
		SendTime:     out.SendTime,
	}, nil
}
