// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/newsletterforge/internal/config"
	"github.com/tomtom215/newsletterforge/internal/mailchimp"
	"github.com/tomtom215/newsletterforge/internal/models"
)

type fakeDispatcher struct {
	previewHTML string
	previewErr  error
	sendResult  *models.SendResult
	sendErr     error
	sentSubject string
	testEmails  []string
	members     []models.Member
}

func (f *fakeDispatcher) Preview(ctx context.Context) (string, error) {
	return f.previewHTML, f.previewErr
}

func (f *fakeDispatcher) Send(ctx context.Context, subject string) (*models.SendResult, error) {
	f.sentSubject = subject
	return f.sendResult, f.sendErr
}

func (f *fakeDispatcher) SendTest(ctx context.Context, subject string, emails []string) (*models.SendResult, error) {
	f.sentSubject = subject
	f.testEmails = emails
	return f.sendResult, f.sendErr
}

func (f *fakeDispatcher) ListMembers(ctx context.Context, limit int) ([]models.Member, error) {
	return f.members, nil
}

type fakeSearcher struct {
	results []models.SearchResult
	pingErr error
}

func (f *fakeSearcher) SearchPosts(ctx context.Context, q string, limit int) ([]models.SearchResult, error) {
	return f.results, nil
}

func (f *fakeSearcher) SearchSponsors(ctx context.Context, q string, limit int) ([]models.SearchResult, error) {
	return f.results, nil
}

func (f *fakeSearcher) Ping(ctx context.Context) error { return f.pingErr }

type fakeRepo struct {
	settings models.Settings
	saved    *models.Settings
}

func (f *fakeRepo) Load() (models.Settings, error) { return f.settings, nil }

func (f *fakeRepo) Save(s models.Settings) error {
	f.saved = &s
	return nil
}

type stubMailchimp struct {
	mailchimp.API
	pingErr error
	status  string
	lastErr string
}

func (s *stubMailchimp) Ping(ctx context.Context) error { return s.pingErr }
func (s *stubMailchimp) CheckSubscription(ctx context.Context, email string) (string, error) {
	return s.status, nil
}
func (s *stubMailchimp) LastError() string { return s.lastErr }

func testRouter(t *testing.T, d *fakeDispatcher, mc *stubMailchimp, repo *fakeRepo) http.Handler {
	t.Helper()
	if repo == nil {
		repo = &fakeRepo{settings: models.DefaultSettings()}
	}
	srv := NewServer(d, mc, &fakeSearcher{}, repo)
	cfg := &config.Config{}
	cfg.Security.CORSOrigins = []string{"*"}
	cfg.Security.RateLimitDisabled = true
	return srv.Routes(cfg)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()
	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp models.APIResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not a JSON envelope: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, resp
}

func TestHandlePreview(t *testing.T) {
	d := &fakeDispatcher{previewHTML: "<html>preview</html>"}
	h := testRouter(t, d, &stubMailchimp{}, nil)

	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/newsletter/preview", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := resp.Data.(map[string]interface{})
	if data["html"] != "<html>preview</html>" {
		t.Errorf("html = %v, want preview document", data["html"])
	}
}

func TestHandlePreview_NoContentIs400(t *testing.T) {
	d := &fakeDispatcher{previewErr: mailchimp.NewValidationError("no content available for the newsletter")}
	h := testRouter(t, d, &stubMailchimp{}, nil)

	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/newsletter/preview", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", resp.Error)
	}
}

func TestHandleSend(t *testing.T) {
	d := &fakeDispatcher{sendResult: &models.SendResult{CampaignID: "camp1", State: models.StateSent}}
	h := testRouter(t, d, &stubMailchimp{}, nil)

	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/newsletter/send", `{"subject":"September News"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if d.sentSubject != "September News" {
		t.Errorf("subject = %q, want passed through", d.sentSubject)
	}
	data := resp.Data.(map[string]interface{})
	if data["campaign_id"] != "camp1" {
		t.Errorf("campaign_id = %v, want camp1", data["campaign_id"])
	}
}

func TestHandleSend_MissingSubject(t *testing.T) {
	d := &fakeDispatcher{}
	h := testRouter(t, d, &stubMailchimp{}, nil)

	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/newsletter/send", `{}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", resp.Error)
	}
	if d.sentSubject != "" {
		t.Error("dispatcher must not run without a subject")
	}
}

func TestHandleSend_ConfigErrorIs412(t *testing.T) {
	d := &fakeDispatcher{
		sendErr:    mailchimp.ErrMissingAPIKey,
		sendResult: &models.SendResult{State: models.StateFailed, Error: mailchimp.ErrMissingAPIKey.Error()},
	}
	h := testRouter(t, d, &stubMailchimp{}, nil)

	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/newsletter/send", `{"subject":"x"}`)

	if rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("status = %d, want 412", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "CONFIGURATION_ERROR" {
		t.Errorf("error = %+v, want CONFIGURATION_ERROR", resp.Error)
	}
	// The failure result still travels in the envelope.
	if resp.Data == nil {
		t.Error("failed send result missing from response data")
	}
}

func TestHandleTest_PassesRecipients(t *testing.T) {
	d := &fakeDispatcher{sendResult: &models.SendResult{CampaignID: "test1", State: models.StateSent}}
	h := testRouter(t, d, &stubMailchimp{}, nil)

	rec, _ := doJSON(t, h, http.MethodPost, "/api/v1/newsletter/test",
		`{"subject":"September News","emails":["a@example.com","b@example.com"]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(d.testEmails) != 2 {
		t.Errorf("emails = %v, want both recipients forwarded", d.testEmails)
	}
}

func TestHandleMemberCheck(t *testing.T) {
	h := testRouter(t, &fakeDispatcher{}, &stubMailchimp{status: "subscribed"}, nil)

	rec, resp := doJSON(t, h, http.MethodGet, "/api/v1/members/check?email=a@example.com", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := resp.Data.(map[string]interface{})
	if data["status"] != "subscribed" {
		t.Errorf("status = %v, want subscribed", data["status"])
	}
}

func TestHandleMemberCheck_RequiresEmail(t *testing.T) {
	h := testRouter(t, &fakeDispatcher{}, &stubMailchimp{}, nil)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/v1/members/check", "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without email param", rec.Code)
	}
}

func TestHandleSettingsGet_MasksAPIKey(t *testing.T) {
	repo := &fakeRepo{settings: func() models.Settings {
		s := models.DefaultSettings()
		s.MailchimpAPIKey = "secret123-us21"
		return s
	}()}
	h := testRouter(t, &fakeDispatcher{}, &stubMailchimp{}, repo)

	rec, resp := doJSON(t, h, http.MethodGet, "/api/v1/settings", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := resp.Data.(map[string]interface{})
	key := data["mailchimp_api_key"].(string)
	if strings.Contains(key, "secret123") {
		t.Errorf("api key = %q, raw key leaked", key)
	}
	if !strings.HasSuffix(key, "-us21") {
		t.Errorf("api key = %q, want region suffix kept", key)
	}
}

func TestHandleSettingsPut_MaskedKeyKeepsStored(t *testing.T) {
	repo := &fakeRepo{settings: func() models.Settings {
		s := models.DefaultSettings()
		s.MailchimpAPIKey = "secret123-us21"
		return s
	}()}
	h := testRouter(t, &fakeDispatcher{}, &stubMailchimp{}, repo)

	body := `{"mailchimp_api_key":"********-us21","posts_limit":3}`
	rec, _ := doJSON(t, h, http.MethodPut, "/api/v1/settings", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if repo.saved == nil {
		t.Fatal("settings were not saved")
	}
	if repo.saved.MailchimpAPIKey != "secret123-us21" {
		t.Errorf("saved key = %q, want stored key kept for masked payload", repo.saved.MailchimpAPIKey)
	}
	if repo.saved.PostsLimit != 3 {
		t.Errorf("saved PostsLimit = %d, want 3", repo.saved.PostsLimit)
	}
}

func TestHandleSettingsPut_RejectsBadColor(t *testing.T) {
	h := testRouter(t, &fakeDispatcher{}, &stubMailchimp{}, nil)

	rec, _ := doJSON(t, h, http.MethodPut, "/api/v1/settings", `{"button_background_color":"reddish"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for invalid hex color", rec.Code)
	}
}

func TestHandleMailchimpPing_FailureSurfacesLastError(t *testing.T) {
	mc := &stubMailchimp{
		pingErr: &mailchimp.TransportError{Err: context.DeadlineExceeded},
		lastErr: "request to Mailchimp failed: context deadline exceeded",
	}
	h := testRouter(t, &fakeDispatcher{}, mc, nil)

	rec, resp := doJSON(t, h, http.MethodGet, "/api/v1/mailchimp/ping", "")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "TRANSPORT_ERROR" {
		t.Errorf("error = %+v, want TRANSPORT_ERROR", resp.Error)
	}
	if !strings.Contains(resp.Error.Message, "deadline") {
		t.Errorf("message = %q, want the client's last error", resp.Error.Message)
	}
}

func TestHandleSearch_QueryTooShort(t *testing.T) {
	h := testRouter(t, &fakeDispatcher{}, &stubMailchimp{}, nil)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/v1/posts/search?q=a", "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for single-character query", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	h := testRouter(t, &fakeDispatcher{}, &stubMailchimp{}, nil)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/v1/health/live", "")
	if rec.Code != http.StatusOK {
		t.Errorf("liveness status = %d, want 200", rec.Code)
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	h := testRouter(t, &fakeDispatcher{}, &stubMailchimp{}, nil)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/v1/health", "")

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey("secret-us21"); got != "********-us21" {
		t.Errorf("maskKey() = %q", got)
	}
	if got := maskKey("nodash"); got != "********" {
		t.Errorf("maskKey() = %q", got)
	}
	if !isMaskedKey("********-us21") || isMaskedKey("real-us21") {
		t.Error("isMaskedKey misclassifies")
	}
}
