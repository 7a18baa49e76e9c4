// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPService wraps an http.Server as a supervised service.
//
// It adapts ListenAndServe/Shutdown to suture's Serve pattern:
//  1. ListenAndServe runs in a goroutine
//  2. Serve blocks until the context is canceled or the listener fails
//  3. Shutdown drains in-flight requests within the grace period
type HTTPService struct {
	server *http.Server
	grace  time.Duration
	logger zerolog.Logger
}

// NewHTTPService creates a supervised HTTP server.
func NewHTTPService(server *http.Server, grace time.Duration, logger zerolog.Logger) *HTTPService {
	if grace <= 0 {
		grace = 10 * time.Second
	}
	return &HTTPService{
		server: server,
		grace:  grace,
		logger: logger.With().Str("component", "http").Logger(),
	}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Msg("HTTP shutdown did not complete cleanly")
		return fmt.Errorf("http shutdown: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture logging.
func (s *HTTPService) String() string {
	return "http-server"
}
