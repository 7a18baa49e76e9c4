// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

package mailchimp

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/newsletterforge/internal/logging"
	"github.com/tomtom215/newsletterforge/internal/metrics"
	"github.com/tomtom215/newsletterforge/internal/models"
)

// Ensure BreakerClient implements API
var _ API = (*BreakerClient)(nil)

// BreakerClient wraps Client with the circuit breaker pattern, preventing
// cascading failures when the Mailchimp API is unavailable or slow.
//
// Validation and configuration errors never count against the breaker; the
// remote was never reached.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewBreakerClient creates a Mailchimp client with circuit breaker protection.
// Circuit breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewBreakerClient(creds CredentialSource, cfg Config) *BreakerClient {
	client := NewClient(creds, cfg)
	cbName := "mailchimp-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening Mailchimp circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] Mailchimp state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{client: client, cb: cb, name: cbName}
}

// execute wraps a Mailchimp API call with circuit breaker protection.
func (bc *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := bc.cb.Execute(func() (interface{}, error) {
		res, callErr := fn()
		if callErr != nil && !countsAsRemoteFailure(callErr) {
			// Report local errors as success to the breaker, keep the error.
			return breakerBypass{err: callErr}, nil
		}
		return res, callErr
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Mailchimp request rejected")
		}
		return nil, err
	}
	if bypass, ok := result.(breakerBypass); ok {
		return nil, bypass.err
	}
	return result, nil
}

// breakerBypass smuggles a local (non-remote) failure through a successful
// breaker execution.
type breakerBypass struct {
	err error
}

// countsAsRemoteFailure reports whether the error reflects remote health.
// Configuration and validation errors happen before any request; 4xx
// responses are request defects, not outages.
func countsAsRemoteFailure(err error) bool {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return false
	}
	if errors.Is(err, ErrMissingAPIKey) || errors.Is(err, ErrMissingListID) || errors.Is(err, ErrInvalidAPIKey) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status < 500 {
		return false
	}
	return true
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Ping tests API connectivity with circuit breaker protection.
func (bc *BreakerClient) Ping(ctx context.Context) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.client.Ping(ctx)
	})
	return err
}

// GetLists retrieves account audiences with circuit breaker protection.
func (bc *BreakerClient) GetLists(ctx context.Context) ([]ListInfo, error) {
	result, err := bc.execute(func() (interface{}, error) {
		return bc.client.GetLists(ctx)
	})
	if err != nil {
		return nil, err
	}
	lists, ok := result.([]ListInfo)
	if !ok {
		return nil, errors.New("circuit breaker: unexpected result type for GetLists")
	}
	return lists, nil
}

// GetListInfo retrieves list metadata with circuit breaker protection.
func (bc *BreakerClient) GetListInfo(ctx context.Context) (*ListInfo, error) {
	result, err := bc.execute(func() (interface{}, error) {
		return bc.client.GetListInfo(ctx)
	})
	if err != nil {
		return nil, err
	}
	info, ok := result.(*ListInfo)
	if !ok {
		return nil, errors.New("circuit breaker: unexpected result type for GetListInfo")
	}
	return info, nil
}

// GetListMembers retrieves subscribed members with circuit breaker protection.
func (bc *BreakerClient) GetListMembers(ctx context.Context, count int) ([]models.Member, error) {
	result, err := bc.execute(func() (interface{}, error) {
		return bc.client.GetListMembers(ctx, count)
	})
	if err != nil {
		return nil, err
	}
	members, ok := result.([]models.Member)
	if !ok {
		return nil, errors.New("circuit breaker: unexpected result type for GetListMembers")
	}
	return members, nil
}

// CreateCampaign creates a campaign with circuit breaker protection.
func (bc *BreakerClient) CreateCampaign(ctx context.Context, subject, html string) (string, error) {
	return bc.executeString(func() (interface{}, error) {
		return bc.client.CreateCampaign(ctx, subject, html)
	})
}

// CreateTestCampaign creates a test campaign with circuit breaker protection.
func (bc *BreakerClient) CreateTestCampaign(ctx context.Context, subject, html string) (string, error) {
	return bc.executeString(func() (interface{}, error) {
		return bc.client.CreateTestCampaign(ctx, subject, html)
	})
}

// SendCampaign triggers a campaign send with circuit breaker protection.
func (bc *BreakerClient) SendCampaign(ctx context.Context, campaignID string) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.client.SendCampaign(ctx, campaignID)
	})
	return err
}

// CreateAndSendCampaign composes create + send with circuit breaker protection.
func (bc *BreakerClient) CreateAndSendCampaign(ctx context.Context, subject, html string) (string, error) {
	return bc.executeString(func() (interface{}, error) {
		return bc.client.CreateAndSendCampaign(ctx, subject, html)
	})
}

// SendTestEmail triggers a test send with circuit breaker protection.
func (bc *BreakerClient) SendTestEmail(ctx context.Context, campaignID string, emails []string) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.client.SendTestEmail(ctx, campaignID, emails)
	})
	return err
}

// CheckSubscription looks up membership status with circuit breaker protection.
func (bc *BreakerClient) CheckSubscription(ctx context.Context, email string) (string, error) {
	return bc.executeString(func() (interface{}, error) {
		return bc.client.CheckSubscription(ctx, email)
	})
}

// GetCampaignReport retrieves campaign statistics with circuit breaker protection.
func (bc *BreakerClient) GetCampaignReport(ctx context.Context, campaignID string) (*models.CampaignReport, error) {
	result, err := bc.execute(func() (interface{}, error) {
		return bc.client.GetCampaignReport(ctx, campaignID)
	})
	if err != nil {
		return nil, err
	}
	report, ok := result.(*models.CampaignReport)
	if !ok {
		return nil, errors.New("circuit breaker: unexpected result type for GetCampaignReport")
	}
	return report, nil
}

// executeString wraps calls whose result is a string.
func (bc *BreakerClient) executeString(fn func() (interface{}, error)) (string, error) {
	result, err := bc.execute(fn)
	if err != nil {
		return "", err
	}
	s, ok := result.(string)
	if !ok {
		return "", errors.New("circuit breaker: unexpected result type")
	}
	return s, nil
}

// LastError returns the wrapped client's last error message.
func (bc *BreakerClient) LastError() string { return bc.client.LastError() }

// LastErrorCode returns the wrapped client's last error code.
func (bc *BreakerClient) LastErrorCode() string { return bc.client.LastErrorCode() }

// State returns the current circuit breaker state.
func (bc *BreakerClient) State() gobreaker.State { return bc.cb.State() }
