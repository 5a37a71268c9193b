// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package edge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/authzgate/internal/decision"
	"github.com/tomtom215/authzgate/internal/decisionlog"
	"github.com/tomtom215/authzgate/internal/logging"
	"github.com/tomtom215/authzgate/internal/metrics"
	"github.com/tomtom215/authzgate/internal/policy"
)

// Decision results, used as metric labels and decision-log outcomes.
const (
	ResultAllow    = "allow"
	ResultDeny     = "deny"
	ResultError    = "error"
	ResultNotReady = "not_ready"
)

type errorBody struct {
	Error string `json:"error"`
}

var (
	notReadyBody    = mustMarshal(errorBody{Error: "Policy not ready yet."})
	deniedBody      = mustMarshal(errorBody{Error: "Not allowed by policy"})
	originErrorBody = mustMarshal(errorBody{Error: "Origin unreachable"})
)

// forwardedHeaders are relayed to the origin as received.
var forwardedHeaders = []string{"Forwarded", "X-Forwarded-For", "X-Forwarded-Host", "X-Forwarded-Proto"}

// Gatekeeper authorizes requests against the policy in a Holder and
// forwards allowed ones to the origin.
type Gatekeeper struct {
	holder        *policy.Holder
	proxy         *httputil.ReverseProxy
	subjectHeader string
	preserveHost  bool
	transport     http.RoundTripper
	decisions     *decisionlog.Logger
	evalTimeout   time.Duration
}

// Option configures a Gatekeeper.
type Option func(*Gatekeeper)

// WithSubjectHeader names the request header whose value becomes the
// policy subject.
func WithSubjectHeader(name string) Option {
	return func(g *Gatekeeper) { g.subjectHeader = name }
}

// WithPreserveHost forwards the client's Host header instead of the
// origin's.
func WithPreserveHost(preserve bool) Option {
	return func(g *Gatekeeper) { g.preserveHost = preserve }
}

// WithTransport sets the round tripper used to reach the origin.
func WithTransport(rt http.RoundTripper) Option {
	return func(g *Gatekeeper) { g.transport = rt }
}

// WithEvalTimeout bounds a single policy evaluation. Zero or negative keeps
// decision.DefaultTimeout.
func WithEvalTimeout(d time.Duration) Option {
	return func(g *Gatekeeper) {
		if d > 0 {
			g.evalTimeout = d
		}
	}
}

// WithDecisionLog records one event per request on l.
func WithDecisionLog(l *decisionlog.Logger) Option {
	return func(g *Gatekeeper) { g.decisions = l }
}

// NewGatekeeper returns a Gatekeeper forwarding to origin.
func NewGatekeeper(holder *policy.Holder, origin *url.URL, opts ...Option) (*Gatekeeper, error) {
	if holder == nil {
		return nil, errors.New("policy holder is required")
	}
	if origin == nil || origin.Scheme == "" || origin.Host == "" {
		return nil, errors.New("origin URL must be absolute")
	}

	g := &Gatekeeper{holder: holder, evalTimeout: decision.DefaultTimeout}
	for _, opt := range opts {
		opt(g)
	}
	if g.transport == nil {
		g.transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	g.proxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(origin)
			if g.preserveHost {
				pr.Out.Host = pr.In.Host
			}
			for _, name := range forwardedHeaders {
				if v, ok := pr.In.Header[name]; ok {
					pr.Out.Header[name] = v
				}
			}
		},
		Transport:    g.transport,
		ErrorHandler: g.originError,
	}
	return g, nil
}

// ServeHTTP implements http.Handler.
func (g *Gatekeeper) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logging.Ctx(r.Context())

	module, err := g.holder.Module()
	if err != nil {
		metrics.RecordEdgeDecision(ResultNotReady, 0)
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejecting request, policy not ready")
		writeJSON(w, http.StatusServiceUnavailable, notReadyBody)
		g.record(r, "", ResultNotReady, http.StatusServiceUnavailable, false, err.Error(), start)
		return
	}

	in := BuildInput(r, g.subjectHeader)

	evalStart := time.Now()
	allowed, err := g.eval(r.Context(), module, in)
	evalDur := time.Since(evalStart)

	if err != nil {
		metrics.RecordEdgeDecision(ResultError, evalDur)
		log.Error().Err(err).
			Str("policy", module.Name()).
			Str("method", in.Method).
			Str("path", in.Path).
			Msg("Policy evaluation failed, denying request")
		writeJSON(w, http.StatusForbidden, deniedBody)
		g.record(r, in.Subject, ResultError, http.StatusForbidden, false, err.Error(), start)
		return
	}

	if !allowed {
		metrics.RecordEdgeDecision(ResultDeny, evalDur)
		log.Debug().
			Str("method", in.Method).
			Str("path", in.Path).
			Str("subject", in.Subject).
			Msg("Request denied by policy")
		writeJSON(w, http.StatusForbidden, deniedBody)
		g.record(r, in.Subject, ResultDeny, http.StatusForbidden, false, "", start)
		return
	}

	metrics.RecordEdgeDecision(ResultAllow, evalDur)
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	g.proxy.ServeHTTP(sw, r)
	g.record(r, in.Subject, ResultAllow, sw.status, true, "", start)
}

type evalResult struct {
	allowed bool
	err     error
}

// eval runs the module with the evaluation deadline applied. A module that
// ignores its context is abandoned when the deadline passes; its late answer
// is discarded.
func (g *Gatekeeper) eval(ctx context.Context, module policy.Module, in policy.Input) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, g.evalTimeout)
	defer cancel()

	done := make(chan evalResult, 1)
	go func() {
		allowed, err := module.EvalBool(ctx, in)
		done <- evalResult{allowed: allowed, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return false, res.err
		}
		if err := ctx.Err(); err != nil {
			return false, fmt.Errorf("policy evaluation: %w", err)
		}
		return res.allowed, nil
	case <-ctx.Done():
		return false, fmt.Errorf("policy evaluation: %w", ctx.Err())
	}
}

func (g *Gatekeeper) originError(w http.ResponseWriter, r *http.Request, err error) {
	metrics.EdgeOriginErrors.Inc()
	logging.Ctx(r.Context()).Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Origin request failed")
	writeJSON(w, http.StatusBadGateway, originErrorBody)
}

func (g *Gatekeeper) record(r *http.Request, subject, outcome string, status int, allowed bool, reason string, start time.Time) {
	g.decisions.Log(&decisionlog.Event{
		RequestID: logging.RequestIDFromContext(r.Context()),
		Mode:      "edge",
		Method:    r.Method,
		Path:      r.URL.Path,
		Subject:   subject,
		Outcome:   outcome,
		Status:    status,
		Allowed:   allowed,
		Reason:    reason,
		Duration:  time.Since(start),
	})
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.Debug().Err(err).Msg("Failed to write edge response")
	}
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// statusWriter captures the status relayed from the origin.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader && code >= http.StatusOK {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
