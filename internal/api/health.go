// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/authzgate/internal/policy"
)

// HealthStatus is the /health response body.
type HealthStatus struct {
	Status    string        `json:"status"`
	Timestamp string        `json:"timestamp"`
	Uptime    float64       `json:"uptime"`
	Mode      string        `json:"mode,omitempty"`
	Version   string        `json:"version,omitempty"`
	Policy    *PolicyStatus `json:"policy,omitempty"`
}

// PolicyStatus reports the edge policy load state.
type PolicyStatus struct {
	State     string `json:"state"`
	Error     string `json:"error,omitempty"`
	SettledAt string `json:"settled_at,omitempty"`
}

// HealthHandler serves liveness and readiness endpoints.
type HealthHandler struct {
	startTime time.Time
	mode      string
	version   string
	holder    *policy.Holder
}

// NewHealthHandler returns a handler for mode. holder is nil in gateway
// mode, where readiness does not depend on a policy.
func NewHealthHandler(mode, version string, holder *policy.Holder) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		mode:      mode,
		version:   version,
		holder:    holder,
	}
}

func (h *HealthHandler) status(healthy string) HealthStatus {
	st := HealthStatus{
		Status:    healthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).Seconds(),
		Mode:      h.mode,
		Version:   h.version,
	}
	if h.holder != nil {
		ps := &PolicyStatus{State: h.holder.State().String()}
		if err := h.holder.Err(); err != nil {
			ps.Error = err.Error()
		}
		if at := h.holder.SettledAt(); !at.IsZero() {
			ps.SettledAt = at.UTC().Format(time.RFC3339)
		}
		st.Policy = ps
	}
	return st
}

// ready reports whether the process can serve decisions.
func (h *HealthHandler) ready() bool {
	return h.holder == nil || h.holder.State() == policy.Loaded
}

// Health reports process status. It always answers 200 while the process
// is up; policy state is informational.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status("healthy"))
}

// HealthLive is the liveness probe.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe: 503 until the policy is loaded.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.ready() {
		writeJSON(w, http.StatusServiceUnavailable, h.status("not_ready"))
		return
	}
	writeJSON(w, http.StatusOK, h.status("ready"))
}
