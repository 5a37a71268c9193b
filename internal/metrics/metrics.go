// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"route"},
	)

	// Gateway Decision Metrics
	GatewayDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_decisions_total",
			Help: "Total gateway decision requests by outcome",
		},
		[]string{"route", "outcome"},
	)

	EngineRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_request_duration_seconds",
			Help:    "Duration of decision engine calls in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"route"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Edge Metrics
	EdgeDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_decisions_total",
			Help: "Total edge gatekeeper decisions by result",
		},
		[]string{"result"}, // allowed, denied, not_ready, error
	)

	EdgeEvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edge_evaluation_duration_seconds",
			Help:    "Duration of in-process policy evaluation in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)

	EdgeOriginErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edge_origin_errors_total",
			Help: "Total allowed requests that failed to reach the origin",
		},
	)

	PolicyLoadState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "policy_load_state",
			Help: "Embedded policy load state (0=unloaded, 1=loaded, 2=failed)",
		},
	)

	PolicyLoadDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "policy_load_duration_seconds",
			Help: "Time taken by the embedded policy load",
		},
	)

	// Decision Log Metrics
	DecisionLogEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decision_log_events_total",
			Help: "Total decision log events written per sink",
		},
		[]string{"sink", "result"},
	)

	DecisionLogDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "decision_log_dropped_total",
			Help: "Decision log events dropped because the buffer was full",
		},
	)

	// Application Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application information",
		},
		[]string{"version", "mode"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordGatewayDecision counts one gateway request outcome.
func RecordGatewayDecision(route, outcome string) {
	GatewayDecisions.WithLabelValues(route, outcome).Inc()
}

// RecordEngineCall observes the latency of one decision engine call.
func RecordEngineCall(route string, duration time.Duration) {
	EngineRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordEdgeDecision counts one edge decision and, when evaluated, its latency.
func RecordEdgeDecision(result string, evalDuration time.Duration) {
	EdgeDecisions.WithLabelValues(result).Inc()
	if evalDuration > 0 {
		EdgeEvaluationDuration.Observe(evalDuration.Seconds())
	}
}

// SetPolicyLoadState publishes the policy state gauge (0 unloaded, 1 loaded, 2 failed).
func SetPolicyLoadState(state float64, loadDuration time.Duration) {
	PolicyLoadState.Set(state)
	if loadDuration > 0 {
		PolicyLoadDuration.Set(loadDuration.Seconds())
	}
}

// RecordDecisionLogWrite counts a decision log write for a sink.
func RecordDecisionLogWrite(sink string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	DecisionLogEvents.WithLabelValues(sink, result).Inc()
}
