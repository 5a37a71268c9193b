// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/authzgate/internal/decision"
	"github.com/tomtom215/authzgate/internal/decisionlog"
	"github.com/tomtom215/authzgate/internal/logging"
	"github.com/tomtom215/authzgate/internal/metrics"
	"github.com/tomtom215/authzgate/internal/middleware"
	"github.com/tomtom215/authzgate/internal/registry"
	"github.com/tomtom215/authzgate/internal/transform"
)

// DefaultMaxBodyBytes bounds caller request bodies.
const DefaultMaxBodyBytes int64 = 100 << 10

// Outcome labels for metrics and the decision log.
const (
	OutcomeOK               = "ok"
	OutcomeNotFound         = "not_found"
	OutcomeMethodNotAllowed = "method_not_allowed"
	OutcomeBadRequest       = "bad_request"
	OutcomeTooLarge         = "too_large"
)

// unmatchedRoute is the metric label for paths outside the registry.
const unmatchedRoute = "unmatched"

// Evaluator performs one decision engine call. *decision.Client implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, env transform.Envelope, endpoint registry.EndpointConfig, authHeader string) (json.RawMessage, error)
}

// Handler serves every registered route.
type Handler struct {
	registry     *registry.Registry
	engine       Evaluator
	decisions    *decisionlog.Logger
	maxBodyBytes int64
}

// Option configures a Handler.
type Option func(*Handler)

// WithDecisionLog records one event per request on l.
func WithDecisionLog(l *decisionlog.Logger) Option {
	return func(h *Handler) { h.decisions = l }
}

// WithMaxBodyBytes sets the request body limit. Non-positive values keep
// the default.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// NewHandler returns a handler for reg that evaluates through engine.
func NewHandler(reg *registry.Registry, engine Evaluator, opts ...Option) *Handler {
	h := &Handler{
		registry:     reg,
		engine:       engine,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	route := r.URL.Path

	endpoint, err := h.registry.Lookup(route)
	if err != nil {
		if !errors.Is(err, registry.ErrRouteNotFound) {
			logging.Ctx(r.Context()).Error().Err(err).Str("route", route).Msg("Endpoint lookup failed")
		}
		NotFound(w, r)
		h.record(r, unmatchedRoute, OutcomeNotFound, http.StatusNotFound, false, start)
		return
	}

	if r.Method != endpoint.Method {
		WriteError(w, http.StatusMethodNotAllowed, ErrorResponse{
			Error:   errMethodNotAllowed,
			Message: fmt.Sprintf("%s only accepts %s requests", route, endpoint.Method),
		})
		h.record(r, route, OutcomeMethodNotAllowed, http.StatusMethodNotAllowed, false, start)
		return
	}

	if id := r.Header.Get(middleware.RequestIDHeader); id != "" {
		w.Header().Set(middleware.RequestIDHeader, id)
	}

	body, status, msg := h.readBody(w, r)
	if status != 0 {
		outcome := OutcomeBadRequest
		errText := errBadRequest
		if status == http.StatusRequestEntityTooLarge {
			outcome = OutcomeTooLarge
			errText = errTooLarge
		}
		WriteError(w, status, ErrorResponse{Error: errText, Message: msg})
		h.record(r, route, outcome, status, false, start)
		return
	}

	engineStart := time.Now()
	result, err := h.engine.Evaluate(r.Context(), transform.ToEngineInput(body), endpoint, r.Header.Get("Authorization"))
	metrics.RecordEngineCall(route, time.Since(engineStart))
	if err != nil {
		status, outcome := h.writeFailure(w, r, route, err)
		h.record(r, route, outcome, status, false, start)
		return
	}

	writeJSON(w, http.StatusOK, result)
	h.record(r, route, OutcomeOK, http.StatusOK, resultAllows(result), start)
}

// readBody returns the caller document, or a non-zero status and message
// when the body is rejected. An empty body is returned as nil and becomes {}
// in the envelope.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, int, string) {
	if r.Body == nil {
		return nil, 0, ""
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, http.StatusBadRequest, "Unable to read request body"
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, 0, ""
	}
	if !json.Valid(trimmed) {
		return nil, http.StatusBadRequest, msgInvalidJSON
	}
	return trimmed, 0, ""
}

// writeFailure maps an Evaluate error onto its response and returns the
// status and outcome label written.
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, route string, err error) (int, string) {
	log := logging.Ctx(r.Context())

	var failure *decision.Failure
	if !errors.As(err, &failure) {
		failure = &decision.Failure{Kind: decision.KindInternal, Err: err}
	}

	switch failure.Kind {
	case decision.KindEngine:
		log.Warn().
			Str("route", route).
			Int("engine_status", failure.Status).
			Str("engine_message", failure.Message).
			Msg("Decision engine returned an error")
		message := failure.MessageJSON
		if len(message) == 0 {
			message, _ = json.Marshal(failure.Message)
		}
		writeValue(w, failure.Status, EngineErrorResponse{
			Error:          errTargetAPI,
			Message:        message,
			OriginalStatus: failure.Status,
		})
		return failure.Status, failure.Kind.String()

	case decision.KindUnreachable:
		log.Error().Err(failure.Err).Str("route", route).Msg("Decision engine unreachable")
		WriteError(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   errUnavailable,
			Message: msgUnreachable,
		})
		return http.StatusServiceUnavailable, failure.Kind.String()

	default:
		log.Error().Err(failure.Err).Str("route", route).Msg("Decision request failed")
		WriteError(w, http.StatusInternalServerError, ErrorResponse{
			Error:   errInternal,
			Message: msgInternal,
		})
		return http.StatusInternalServerError, decision.KindInternal.String()
	}
}

func (h *Handler) record(r *http.Request, route, outcome string, status int, allowed bool, start time.Time) {
	metrics.RecordGatewayDecision(route, outcome)

	h.decisions.Log(&decisionlog.Event{
		RequestID: logging.RequestIDFromContext(r.Context()),
		Mode:      "gateway",
		Route:     route,
		Method:    r.Method,
		Path:      r.URL.Path,
		Outcome:   outcome,
		Status:    status,
		Allowed:   allowed,
		Duration:  time.Since(start),
	})
}

// resultAllows reports whether result is an AuthZEN-style {"decision": true}
// or a bare true.
func resultAllows(result json.RawMessage) bool {
	trimmed := bytes.TrimSpace(result)
	if bytes.Equal(trimmed, []byte("true")) {
		return true
	}
	var doc struct {
		Decision bool `json:"decision"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return false
	}
	return doc.Decision
}
