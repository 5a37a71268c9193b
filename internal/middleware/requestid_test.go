// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/authzgate/internal/logging"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("relays caller supplied header", func(t *testing.T) {
		t.Parallel()

		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = logging.RequestIDFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodPost, "/access/v1/evaluation", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
			t.Errorf("response X-Request-ID = %q, want abc-123", got)
		}
		if seen != "abc-123" {
			t.Errorf("context request ID = %q, want abc-123", seen)
		}
	})

	t.Run("no header added when absent", func(t *testing.T) {
		t.Parallel()

		var seen, correlation string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = logging.RequestIDFromContext(r.Context())
			correlation = logging.CorrelationIDFromContext(r.Context())
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		if _, ok := rec.Header()["X-Request-Id"]; ok {
			t.Error("X-Request-ID must not be set when the caller did not send one")
		}
		if seen == "" {
			t.Error("expected generated request ID in context")
		}
		if correlation == "" {
			t.Error("expected correlation ID in context")
		}
	})
}

func TestRequestContext(t *testing.T) {
	t.Parallel()

	var seen string
	handler := RequestContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	req.Header.Set("X-Request-ID", "edge-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "edge-1" {
		t.Errorf("context request ID = %q, want edge-1", seen)
	}
	if len(rec.Header()) != 0 {
		t.Errorf("response headers = %v, want none", rec.Header())
	}
}
