// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/newsletterforge/internal/mailchimp"
	"github.com/tomtom215/newsletterforge/internal/render"
)

// classifyError maps domain errors onto HTTP status and API error codes.
func classifyError(err error) (status int, code string) {
	var (
		validationErr *mailchimp.ValidationError
		apiErr        *mailchimp.APIError
		transportErr  *mailchimp.TransportError
		renderErr     *render.RenderError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, mailchimp.ErrMissingAPIKey),
		errors.Is(err, mailchimp.ErrMissingListID),
		errors.Is(err, mailchimp.ErrInvalidAPIKey):
		return http.StatusPreconditionFailed, "CONFIGURATION_ERROR"
	case errors.As(err, &apiErr):
		if apiErr.Status == http.StatusNotFound {
			return http.StatusNotFound, "NOT_FOUND"
		}
		return http.StatusBadGateway, "REMOTE_API_ERROR"
	case errors.As(err, &transportErr):
		return http.StatusBadGateway, "TRANSPORT_ERROR"
	case errors.As(err, &renderErr):
		return http.StatusInternalServerError, "RENDER_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
