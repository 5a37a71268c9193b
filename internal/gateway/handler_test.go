// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/authzgate/internal/decision"
	"github.com/tomtom215/authzgate/internal/decisionlog"
	"github.com/tomtom215/authzgate/internal/registry"
	"github.com/tomtom215/authzgate/internal/transform"
)

const testRoute = "/access/v1/evaluation"

type engineCall struct {
	method string
	path   string
	auth   string
	body   string
}

// fakeEngine is an httptest decision engine that records calls.
type fakeEngine struct {
	*httptest.Server
	calls  atomic.Int32
	mu     sync.Mutex
	last   engineCall
	status int
	body   string
}

func newFakeEngine(t *testing.T, status int, body string) *fakeEngine {
	t.Helper()
	e := &fakeEngine{status: status, body: body}
	e.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.calls.Add(1)
		data, _ := io.ReadAll(r.Body)
		e.mu.Lock()
		e.last = engineCall{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization"), body: string(data)}
		e.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(e.status)
		_, _ = w.Write([]byte(e.body))
	}))
	t.Cleanup(e.Close)
	return e
}

func (e *fakeEngine) lastCall() engineCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func newTestHandler(t *testing.T, engineURL string, opts ...Option) *Handler {
	t.Helper()
	reg, err := registry.New(engineURL, registry.Entry{Route: testRoute, PolicyPath: "authzen/allow"})
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	return NewHandler(reg, decision.NewClient(), opts...)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHandler_Success(t *testing.T) {
	engine := newFakeEngine(t, http.StatusOK, `{"result":{"decision":true}}`)
	h := newTestHandler(t, engine.URL)

	req := httptest.NewRequest(http.MethodPost, testRoute, strings.NewReader(`{"subject":{"id":"alice"},"action":{"name":"read"}}`))
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != `{"decision":true}` {
		t.Errorf("body = %s, want {\"decision\":true}", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	call := engine.lastCall()
	if call.method != http.MethodPost {
		t.Errorf("engine method = %s, want POST", call.method)
	}
	if call.path != "/v1/data/authzen/allow" {
		t.Errorf("engine path = %s", call.path)
	}
	if call.auth != "Bearer token" {
		t.Errorf("engine Authorization = %q", call.auth)
	}
	if call.body != `{"input":{"subject":{"id":"alice"},"action":{"name":"read"}}}` {
		t.Errorf("engine body = %s", call.body)
	}
}

func TestHandler_MissingResultIsEmptyObject(t *testing.T) {
	engine := newFakeEngine(t, http.StatusOK, `{}`)
	h := newTestHandler(t, engine.URL)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, testRoute, strings.NewReader(`{}`)))

	if rec.Code != http.StatusOK || rec.Body.String() != `{}` {
		t.Errorf("got %d %s, want 200 {}", rec.Code, rec.Body.String())
	}
}

func TestHandler_EmptyBodyBecomesEmptyInput(t *testing.T) {
	engine := newFakeEngine(t, http.StatusOK, `{"result":false}`)
	h := newTestHandler(t, engine.URL)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, testRoute, nil))

	if rec.Code != http.StatusOK || rec.Body.String() != `false` {
		t.Errorf("got %d %s, want 200 false", rec.Code, rec.Body.String())
	}
	if body := engine.lastCall().body; body != `{"input":{}}` {
		t.Errorf("engine body = %s, want {\"input\":{}}", body)
	}
	if engine.lastCall().auth != "" {
		t.Error("Authorization forwarded although the caller sent none")
	}
}

func TestHandler_RouteNotFound(t *testing.T) {
	engine := newFakeEngine(t, http.StatusOK, `{"result":true}`)
	h := newTestHandler(t, engine.URL)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(method, "/unknown/route", strings.NewReader(`{}`)))

			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", rec.Code)
			}
			resp := decodeError(t, rec)
			if resp.Error != "Endpoint not found" {
				t.Errorf("error = %q", resp.Error)
			}
			if !strings.Contains(resp.Message, "/unknown/route") {
				t.Errorf("message %q does not name the route", resp.Message)
			}
		})
	}
	if n := engine.calls.Load(); n != 0 {
		t.Errorf("engine called %d times, want 0", n)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	engine := newFakeEngine(t, http.StatusOK, `{"result":true}`)
	h := newTestHandler(t, engine.URL)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, testRoute, nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error != "Method not allowed" || resp.Message != testRoute+" only accepts POST requests" {
		t.Errorf("body = %+v", resp)
	}
	if n := engine.calls.Load(); n != 0 {
		t.Errorf("engine called %d times, want 0", n)
	}
}

func TestHandler_RequestIDRelay(t *testing.T) {
	engine := newFakeEngine(t, http.StatusOK, `{"result":true}`)
	h := newTestHandler(t, engine.URL)

	t.Run("present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, testRoute, strings.NewReader(`{}`))
		req.Header.Set("X-Request-ID", "req-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
			t.Errorf("X-Request-ID = %q, want req-123", got)
		}
	})

	t.Run("absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, testRoute, strings.NewReader(`{}`)))
		if got := rec.Header().Get("X-Request-ID"); got != "" {
			t.Errorf("X-Request-ID = %q, want empty", got)
		}
	})
}

func TestHandler_EngineErrorStructuredMessage(t *testing.T) {
	engine := newFakeEngine(t, http.StatusBadRequest, `{"code":"invalid_parameter","message":{"field":"subject","reason":"missing"}}`)
	h := newTestHandler(t, engine.URL)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, testRoute, strings.NewReader(`{}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp EngineErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	var message map[string]string
	if err := json.Unmarshal(resp.Message, &message); err != nil {
		t.Fatalf("message %s is not an object: %v", resp.Message, err)
	}
	if message["field"] != "subject" || message["reason"] != "missing" {
		t.Errorf("message = %v", message)
	}
	if resp.Error != "Target API error" || resp.OriginalStatus != http.StatusBadRequest {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandler_EngineErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"message relayed", http.StatusBadRequest, `{"code":"invalid_parameter","message":"bad input"}`, "bad input"},
		{"missing message", http.StatusInternalServerError, `{"code":"internal_error"}`, decision.UnknownEngineMessage},
		{"non-json body", http.StatusBadGateway, `<html>oops</html>`, decision.UnknownEngineMessage},
		{"forbidden", http.StatusForbidden, `{"message":"nope"}`, "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newFakeEngine(t, tt.status, tt.body)
			h := newTestHandler(t, engine.URL)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, testRoute, strings.NewReader(`{}`)))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var resp EngineErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode body %q: %v", rec.Body.String(), err)
			}
			if resp.Error != "Target API error" {
				t.Errorf("error = %q", resp.Error)
			}
			var message string
			if err := json.Unmarshal(resp.Message, &message); err != nil || message != tt.wantMessage {
				t.Errorf("message = %s, want %q", resp.Message, tt.wantMessage)
			}
			if resp.OriginalStatus != tt.status {
				t.Errorf("originalStatus = %d, want %d", resp.OriginalStatus, tt.status)
			}
		})
	}
}

func TestHandler_EngineUnreachable(t *testing.T) {
	engine := newFakeEngine(t, http.StatusOK, `{}`)
	url := engine.URL
	engine.Close()

	h := newTestHandler(t, url)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, testRoute, strings.NewReader(`{}`)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error != "Service unavailable" || resp.Message != "Unable to reach target API" {
		t.Errorf("body = %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "127.0.0.1") {
		t.Error("response leaks connection detail")
	}
}

type errEvaluator struct{ err error }

func (e errEvaluator) Evaluate(context.Context, transform.Envelope, registry.EndpointConfig, string) (json.RawMessage, error) {
	return nil, e.err
}

func TestHandler_InternalFailure(t *testing.T) {
	reg, err := registry.New("http://engine.invalid", registry.Entry{Route: testRoute, PolicyPath: "authzen/allow"})
	if err != nil {
		t.Fatal(err)
	}

	for _, evalErr := range []error{
		errors.New("untyped failure"),
		&decision.Failure{Kind: decision.KindInternal, Err: errors.New("encode failed")},
	} {
		h := NewHandler(reg, errEvaluator{err: evalErr})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, testRoute, strings.NewReader(`{}`)))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		resp := decodeError(t, rec)
		if resp.Error != "Internal server error" || resp.Message != "An unexpected error occurred" {
			t.Errorf("body = %+v", resp)
		}
		if strings.Contains(rec.Body.String(), "failed") {
			t.Error("response leaks internal error detail")
		}
	}
}

func TestHandler_InvalidJSON(t *testing.T) {
	engine := newFakeEngine(t, http.StatusOK, `{"result":true}`)
	h := newTestHandler(t, engine.URL)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, testRoute, strings.NewReader(`{"subject":`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Message != "Request body must be valid JSON" {
		t.Errorf("message = %q", resp.Message)
	}
	if n := engine.calls.Load(); n != 0 {
		t.Errorf("engine called %d times, want 0", n)
	}
}

func TestHandler_BodyTooLarge(t *testing.T) {
	engine := newFakeEngine(t, http.StatusOK, `{"result":true}`)
	h := newTestHandler(t, engine.URL, WithMaxBodyBytes(16))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, testRoute, strings.NewReader(`{"padding":"`+strings.Repeat("x", 64)+`"}`)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if n := engine.calls.Load(); n != 0 {
		t.Errorf("engine called %d times, want 0", n)
	}
}

type captureSink struct {
	mu     sync.Mutex
	events []decisionlog.Event
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) Write(e *decisionlog.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *e)
	return nil
}

func TestHandler_DecisionLog(t *testing.T) {
	engine := newFakeEngine(t, http.StatusOK, `{"result":{"decision":true}}`)
	sink := &captureSink{}
	dl := decisionlog.New(decisionlog.Config{BufferSize: 8}, sink)
	h := newTestHandler(t, engine.URL, WithDecisionLog(dl))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, testRoute, strings.NewReader(`{}`)))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, testRoute, nil))
	_ = dl.Close()

	if len(sink.events) != 2 {
		t.Fatalf("logged %d events, want 2", len(sink.events))
	}
	ok, rejected := sink.events[0], sink.events[1]
	if ok.Mode != "gateway" || ok.Outcome != OutcomeOK || !ok.Allowed || ok.Status != http.StatusOK {
		t.Errorf("success event = %+v", ok)
	}
	if rejected.Outcome != OutcomeMethodNotAllowed || rejected.Allowed {
		t.Errorf("405 event = %+v", rejected)
	}
}

func TestResultAllows(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`{"decision":true}`, true},
		{`{"decision":false}`, false},
		{`{}`, false},
		{`[true]`, false},
		{`{"decision":"yes"}`, false},
	}
	for _, tt := range tests {
		if got := resultAllows(json.RawMessage(tt.in)); got != tt.want {
			t.Errorf("resultAllows(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
