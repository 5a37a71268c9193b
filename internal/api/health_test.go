// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/authzgate/internal/policy"
)

type allowAll struct{}

func (allowAll) Name() string { return "allow-all" }

func (allowAll) EvalBool(context.Context, policy.Input) (bool, error) { return true, nil }

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthStatus {
	t.Helper()
	var st HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode health body %q: %v", rec.Body.String(), err)
	}
	return st
}

func TestHealth_Gateway(t *testing.T) {
	h := NewHealthHandler("gateway", "1.2.3", nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	st := decodeHealth(t, rec)
	if st.Status != "healthy" {
		t.Errorf("status = %q, want healthy", st.Status)
	}
	if _, err := time.Parse(time.RFC3339, st.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", st.Timestamp, err)
	}
	if st.Uptime < 0 {
		t.Errorf("uptime = %v", st.Uptime)
	}
	if st.Policy != nil {
		t.Error("gateway health must not report a policy")
	}

	rec = httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("gateway ready = %d, want 200", rec.Code)
	}
}

func TestHealth_EdgePolicyStates(t *testing.T) {
	tests := []struct {
		name      string
		settle    func(*policy.Holder)
		wantState string
		wantReady int
		wantError bool
	}{
		{"unloaded", func(*policy.Holder) {}, "unloaded", http.StatusServiceUnavailable, false},
		{"loaded", func(h *policy.Holder) { _ = h.MarkLoaded(allowAll{}) }, "loaded", http.StatusOK, false},
		{"failed", func(h *policy.Holder) { _ = h.MarkFailed(errors.New("rego_parse_error")) }, "failed", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			holder := policy.NewHolder()
			tt.settle(holder)
			h := NewHealthHandler("edge", "test", holder)

			rec := httptest.NewRecorder()
			h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != http.StatusOK {
				t.Errorf("health = %d, want 200", rec.Code)
			}
			st := decodeHealth(t, rec)
			if st.Policy == nil || st.Policy.State != tt.wantState {
				t.Fatalf("policy = %+v, want state %s", st.Policy, tt.wantState)
			}
			if (st.Policy.Error != "") != tt.wantError {
				t.Errorf("policy error = %q", st.Policy.Error)
			}

			rec = httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			if rec.Code != tt.wantReady {
				t.Errorf("ready = %d, want %d", rec.Code, tt.wantReady)
			}

			rec = httptest.NewRecorder()
			h.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
			if rec.Code != http.StatusOK {
				t.Errorf("live = %d, want 200", rec.Code)
			}
		})
	}
}
