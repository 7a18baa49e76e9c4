// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

package mailchimp

import (
	"errors"
	"fmt"
)

// Configuration errors. Returned before any HTTP request is made.
var (
	// ErrMissingAPIKey indicates no Mailchimp API key is configured.
	ErrMissingAPIKey = errors.New("mailchimp API key is not configured")

	// ErrMissingListID indicates no Mailchimp list ID is configured.
	ErrMissingListID = errors.New("mailchimp list ID is not configured")

	// ErrInvalidAPIKey indicates the API key carries no region suffix.
	ErrInvalidAPIKey = errors.New("mailchimp API key has no region suffix")
)

// TransportError wraps a network-level failure (DNS, connect, timeout).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mailchimp request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ContentUploadError marks a failure of the content PUT after the campaign
// itself was created. The draft exists on Mailchimp without a body; callers
// can attribute the failure to the content stage.
type ContentUploadError struct {
	CampaignID string
	Err        error
}

func (e *ContentUploadError) Error() string {
	return fmt.Sprintf("campaign %s created but content upload failed: %v", e.CampaignID, e.Err)
}

func (e *ContentUploadError) Unwrap() error { return e.Err }

// APIError is a 4xx/5xx response from the Mailchimp API. Detail carries the
// response's detail field when present, else title, else a generic
// HTTP-status message.
type APIError struct {
	Status int
	Title  string
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("mailchimp API error %d: %s", e.Status, e.Detail)
	}
	if e.Title != "" {
		return fmt.Sprintf("mailchimp API error %d: %s", e.Status, e.Title)
	}
	return fmt.Sprintf("mailchimp API returned unexpected status %d", e.Status)
}

// ValidationError indicates invalid input rejected before any HTTP request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
