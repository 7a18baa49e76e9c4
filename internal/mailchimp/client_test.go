// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

package mailchimp

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(StaticCredentials{APIKey: "abc123-us21", ListID: "list99"}, Config{
		FromName:        "Riverside Times",
		ReplyTo:         "news@riverside.example",
		RatePerSecond:   1000,
		BaseURLOverride: srv.URL,
	})
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		want    string
		wantErr bool
	}{
		{"us21 region", "abc123-us21", "https://us21.api.mailchimp.com/3.0/", false},
		{"multiple dashes uses last", "a-b-us6", "https://us6.api.mailchimp.com/3.0/", false},
		{"no dash", "abc123", "", true},
		{"trailing dash", "abc123-", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BaseURL(tt.apiKey)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BaseURL(%q) error = %v, wantErr %v", tt.apiKey, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidAPIKey) {
				t.Errorf("BaseURL(%q) error = %v, want ErrInvalidAPIKey", tt.apiKey, err)
			}
			if got != tt.want {
				t.Errorf("BaseURL(%q) = %q, want %q", tt.apiKey, got, tt.want)
			}
		})
	}
}

func TestPing_SetsBasicAuth(t *testing.T) {
	var gotAuth string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"health_status":"Everything's Chimpy!"}`))
	})

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("user:abc123-us21"))
	if gotAuth != want {
		t.Errorf("Authorization = %q, want %q", gotAuth, want)
	}
	if c.LastError() != "" {
		t.Errorf("LastError() = %q, want empty after success", c.LastError())
	}
}

func TestPing_MissingAPIKey(t *testing.T) {
	c := NewClient(StaticCredentials{}, Config{RatePerSecond: 1000})

	err := c.Ping(context.Background())

	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Ping() error = %v, want ErrMissingAPIKey", err)
	}
	if c.LastErrorCode() != ErrCodeMissingAPIKey {
		t.Errorf("LastErrorCode() = %q, want %q", c.LastErrorCode(), ErrCodeMissingAPIKey)
	}
}

func TestGetListInfo_MissingListID(t *testing.T) {
	c := NewClient(StaticCredentials{APIKey: "abc-us1"}, Config{RatePerSecond: 1000})

	_, err := c.GetListInfo(context.Background())

	if !errors.Is(err, ErrMissingListID) {
		t.Fatalf("GetListInfo() error = %v, want ErrMissingListID", err)
	}
	if c.LastErrorCode() != ErrCodeMissingListID {
		t.Errorf("LastErrorCode() = %q, want %q", c.LastErrorCode(), ErrCodeMissingListID)
	}
}

func TestGetListInfo_APIErrorRecorded(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"title":"Resource Not Found","detail":"The requested resource could not be found."}`))
	})

	_, err := c.GetListInfo(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetListInfo() error = %T, want *APIError", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Title != "Resource Not Found" {
		t.Errorf("APIError = %+v, want decoded 404 payload", apiErr)
	}
	if c.LastError() == "" || c.LastErrorCode() != ErrCodeHTTPError {
		t.Errorf("last error = (%q, %q), want recorded http_error", c.LastError(), c.LastErrorCode())
	}
}

func TestGetLists(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lists" {
			t.Errorf("path = %s, want /lists", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"lists":[
			{"id":"list99","name":"Main Audience","stats":{"member_count":120}},
			{"id":"list42","name":"Beta Testers","stats":{"member_count":7}}
		]}`))
	})

	lists, err := c.GetLists(context.Background())
	if err != nil {
		t.Fatalf("GetLists() error: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("got %d lists, want 2", len(lists))
	}
	if lists[0].ID != "list99" || lists[0].MemberCount != 120 {
		t.Errorf("lists[0] = %+v", lists[0])
	}
	if lists[1].Name != "Beta Testers" {
		t.Errorf("lists[1] = %+v", lists[1])
	}
}

func TestGetListMembers_FiltersUnsubscribed(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"members":[
			{"email_address":"a@example.com","status":"subscribed","merge_fields":{"FNAME":"Ada","LNAME":"L"}},
			{"email_address":"b@example.com","status":"unsubscribed","merge_fields":{}},
			{"email_address":"c@example.com","status":"subscribed","merge_fields":{}}
		]}`))
	})

	members, err := c.GetListMembers(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetListMembers() error = %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2 subscribed", len(members))
	}
	if members[0].DisplayName != "Ada L" {
		t.Errorf("DisplayName = %q, want merge fields joined", members[0].DisplayName)
	}
	if members[1].DisplayName != "c@example.com" {
		t.Errorf("DisplayName = %q, want email fallback", members[1].DisplayName)
	}
}

func TestGetListMembers_NonStringMergeFields(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"members":[
			{"email_address":"a@example.com","status":"subscribed","merge_fields":{
				"FNAME":"Ann",
				"ADDRESS":{"addr1":"1 Main St","city":"Springfield","zip":"12345"},
				"BIRTHDAY":{"month":4,"day":2}
			}}
		]}`))
	})

	members, err := c.GetListMembers(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetListMembers() error = %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("members = %d, want 1", len(members))
	}
	if members[0].DisplayName != "Ann" {
		t.Errorf("DisplayName = %q, want string merge fields only", members[0].DisplayName)
	}
}

func TestCreateCampaign_TwoStageCreateAndContent(t *testing.T) {
	var paths []string
	var createBody map[string]interface{}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/campaigns":
			_ = json.NewDecoder(r.Body).Decode(&createBody)
			_, _ = w.Write([]byte(`{"id":"camp1"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/campaigns/camp1/content":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	id, err := c.CreateCampaign(context.Background(), "September News", "<html></html>")
	if err != nil {
		t.Fatalf("CreateCampaign() error = %v", err)
	}
	if id != "camp1" {
		t.Errorf("campaign id = %q, want camp1", id)
	}
	if len(paths) != 2 || paths[0] != "POST /campaigns" || paths[1] != "PUT /campaigns/camp1/content" {
		t.Errorf("request sequence = %v, want create then content upload", paths)
	}

	settings := createBody["settings"].(map[string]interface{})
	if settings["subject_line"] != "September News" {
		t.Errorf("subject_line = %v", settings["subject_line"])
	}
	if !strings.HasPrefix(settings["title"].(string), "September News - ") {
		t.Errorf("title = %v, want subject plus timestamp", settings["title"])
	}
	if settings["auto_footer"] != false || settings["inline_css"] != false {
		t.Error("auto_footer and inline_css must stay disabled")
	}
	if createBody["type"] != "regular" {
		t.Errorf("type = %v, want regular", createBody["type"])
	}
	recipients := createBody["recipients"].(map[string]interface{})
	if recipients["list_id"] != "list99" {
		t.Errorf("list_id = %v, want list99", recipients["list_id"])
	}
}

func TestCreateCampaign_ContentUploadFailureTyped(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/campaigns":
			_, _ = w.Write([]byte(`{"id":"camp1"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"title":"Internal Server Error","detail":"content upload broke"}`))
		}
	})

	_, err := c.CreateCampaign(context.Background(), "September News", "<html></html>")
	var uploadErr *ContentUploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("CreateCampaign() error = %T, want *ContentUploadError", err)
	}
	if uploadErr.CampaignID != "camp1" {
		t.Errorf("CampaignID = %q, want the created draft id", uploadErr.CampaignID)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Errorf("wrapped error = %v, want the underlying 500 APIError reachable", err)
	}
}

func TestCreateTestCampaign_SubjectPrefixed(t *testing.T) {
	var subject string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/campaigns" {
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			subject = body["settings"].(map[string]interface{})["subject_line"].(string)
			_, _ = w.Write([]byte(`{"id":"camp2"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})

	if _, err := c.CreateTestCampaign(context.Background(), "September News", "<html></html>"); err != nil {
		t.Fatalf("CreateTestCampaign() error = %v", err)
	}
	if subject != "[TEST] September News" {
		t.Errorf("subject = %q, want [TEST] prefix", subject)
	}
}

func TestSendCampaign_NoContentIsSuccess(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/campaigns/camp1/actions/send" {
			t.Errorf("path = %s, want send action", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.SendCampaign(context.Background(), "camp1"); err != nil {
		t.Fatalf("SendCampaign() error = %v", err)
	}
	if c.LastError() != "" {
		t.Errorf("LastError() = %q, want empty", c.LastError())
	}
}

func TestSendTestEmail_FiltersInvalidBeforeHTTP(t *testing.T) {
	var body struct {
		TestEmails []string `json:"test_emails"`
		SendType   string   `json:"send_type"`
	}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.SendTestEmail(context.Background(), "camp1", []string{"ok@example.com", "not-an-email", " ", "also@example.com"})
	if err != nil {
		t.Fatalf("SendTestEmail() error = %v", err)
	}
	if len(body.TestEmails) != 2 {
		t.Errorf("test_emails = %v, want the two valid addresses", body.TestEmails)
	}
	if body.SendType != "html" {
		t.Errorf("send_type = %q, want html", body.SendType)
	}
}

func TestSendTestEmail_AllInvalidFailsWithoutHTTP(t *testing.T) {
	requests := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	err := c.SendTestEmail(context.Background(), "camp1", []string{"nope", ""})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("SendTestEmail() error = %T, want *ValidationError", err)
	}
	if requests != 0 {
		t.Errorf("requests = %d, want 0 when every address is invalid", requests)
	}
}

func TestCheckSubscription(t *testing.T) {
	t.Run("subscribed member", func(t *testing.T) {
		var path string
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			_, _ = w.Write([]byte(`{"status":"subscribed"}`))
		})

		status, err := c.CheckSubscription(context.Background(), "Ada@Example.com")
		if err != nil {
			t.Fatalf("CheckSubscription() error = %v", err)
		}
		if status != "subscribed" {
			t.Errorf("status = %q, want subscribed", status)
		}
		// md5("ada@example.com")
		if !strings.HasSuffix(path, "/members/3e3417d7ef77d5932a6734b916515ed5") {
			t.Errorf("path = %q, want md5 of lowercased email", path)
		}
	})

	t.Run("unknown member", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"title":"Resource Not Found"}`))
		})

		status, err := c.CheckSubscription(context.Background(), "ghost@example.com")
		if err != nil {
			t.Fatalf("CheckSubscription() error = %v", err)
		}
		if status != "not subscribed" {
			t.Errorf("status = %q, want %q", status, "not subscribed")
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for invalid email")
		})

		_, err := c.CheckSubscription(context.Background(), "not-an-email")
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("CheckSubscription() error = %T, want *ValidationError", err)
		}
		if c.LastError() == "" {
			t.Error("LastError() empty, want validation failure recorded")
		}
	})
}

func TestGetCampaignReport(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reports/camp1" {
			t.Errorf("path = %s, want /reports/camp1", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"id":"camp1","emails_sent":120,
			"opens":{"opens_total":80,"unique_opens":60},
			"clicks":{"clicks_total":30,"unique_clicks":20},
			"unsubscribed":2,
			"bounces":{"hard_bounces":1,"soft_bounces":3}
		}`))
	})

	report, err := c.GetCampaignReport(context.Background(), "camp1")
	if err != nil {
		t.Fatalf("GetCampaignReport() error = %v", err)
	}
	if report.EmailsSent != 120 || report.UniqueOpens != 60 || report.Bounces != 4 {
		t.Errorf("report = %+v, want aggregated stats", report)
	}
}

func TestTransportErrorRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(StaticCredentials{APIKey: "abc-us1", ListID: "l"}, Config{
		RatePerSecond:   1000,
		BaseURLOverride: srv.URL,
	})

	err := c.Ping(context.Background())

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("Ping() error = %T, want *TransportError", err)
	}
	if c.LastErrorCode() != ErrCodeTransportError {
		t.Errorf("LastErrorCode() = %q, want %q", c.LastErrorCode(), ErrCodeTransportError)
	}
}
