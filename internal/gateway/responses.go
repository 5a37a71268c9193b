// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package gateway

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/authzgate/internal/logging"
)

// ErrorResponse is the JSON body of gateway errors other than engine
// failures, which use EngineErrorResponse.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// EngineErrorResponse relays a decision engine failure. Message carries the
// engine's message with its JSON type preserved.
type EngineErrorResponse struct {
	Error          string          `json:"error"`
	Message        json.RawMessage `json:"message"`
	OriginalStatus int             `json:"originalStatus"`
}

// Fixed error texts.
const (
	errNotFound         = "Endpoint not found"
	errMethodNotAllowed = "Method not allowed"
	errBadRequest       = "Bad request"
	errTooLarge         = "Payload too large"
	errTargetAPI        = "Target API error"
	errUnavailable      = "Service unavailable"
	errInternal         = "Internal server error"

	msgUnreachable = "Unable to reach target API"
	msgInternal    = "An unexpected error occurred"
	msgInvalidJSON = "Request body must be valid JSON"
)

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.Debug().Err(err).Msg("Failed to write gateway response")
	}
}

// WriteError writes an ErrorResponse with status.
func WriteError(w http.ResponseWriter, status int, resp ErrorResponse) {
	writeValue(w, status, resp)
}

func writeValue(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal gateway error")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, data)
}

// NotFound writes the 404 body naming path. It is also used as the router's
// catch-all.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, ErrorResponse{
		Error:   errNotFound,
		Message: "No proxy configuration found for " + r.URL.Path,
	})
}
