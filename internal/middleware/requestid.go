// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package middleware

import (
	"net/http"

	"github.com/tomtom215/authzgate/internal/logging"
)

// RequestIDHeader is the caller-supplied correlation header.
const RequestIDHeader = "X-Request-ID"

// RequestID populates request_id and correlation_id in the request context.
//
// A caller-supplied X-Request-ID is used as the request ID and echoed on the
// response. Without one, an ID is generated for log correlation only and no
// header is added to the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID != "" {
			w.Header().Set(RequestIDHeader, requestID)
		} else {
			requestID = logging.GenerateRequestID()
		}

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithNewCorrelationID(ctx)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestContext populates request_id and correlation_id in the request
// context without touching response headers. Used in front of proxied
// origins whose responses are relayed as-is.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithNewCorrelationID(ctx)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
