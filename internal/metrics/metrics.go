// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - API endpoint latency and throughput
// - Mailchimp request performance and error rates
// - Campaign dispatch outcomes
// - Circuit breaker state

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Mailchimp Client Metrics
	MailchimpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailchimp_request_duration_seconds",
			Help:    "Duration of Mailchimp API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	MailchimpRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailchimp_request_errors_total",
			Help: "Total number of failed Mailchimp API requests",
		},
		[]string{"error_type"}, // "transport_error", "http_error"
	)

	// Campaign Dispatch Metrics
	CampaignsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaigns_sent_total",
			Help: "Total number of campaigns dispatched",
		},
		[]string{"kind"}, // "real", "test"
	)

	CampaignsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaigns_failed_total",
			Help: "Total number of campaign dispatches that failed",
		},
		[]string{"stage"}, // pipeline stage at failure
	)

	PostsMarkedSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "posts_marked_sent_total",
			Help: "Total number of posts flagged with a sent-marker",
		},
	)

	PreviewsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "previews_generated_total",
			Help: "Total number of newsletter previews rendered",
		},
	)

	ScheduledSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_sends_total",
			Help: "Total number of scheduler-triggered campaign sends",
		},
		[]string{"result"}, // "success", "failure", "skipped"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
