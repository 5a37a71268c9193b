// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

/*
Package metrics defines the Prometheus metrics exported by Authzgate.

All collectors are registered on the default registry via promauto and served
at /metrics (gateway listener in gateway mode, admin listener in edge mode).

# Available Metrics

HTTP:
  - api_requests_total{method,route,status_code}
  - api_request_duration_seconds{method,route}
  - api_active_requests
  - api_rate_limit_hits_total{route}

Gateway decisions:
  - gateway_decisions_total{route,outcome}
    outcome: ok, engine_error, unreachable, internal, not_found, method_not_allowed, bad_request
  - engine_request_duration_seconds{route}

Circuit breaker (decision engine):
  - circuit_breaker_state{name} 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_state_transitions_total{name,from_state,to_state}

Edge:
  - edge_decisions_total{result} allowed, denied, not_ready, error
  - edge_evaluation_duration_seconds
  - edge_origin_errors_total
  - policy_load_state 0=unloaded, 1=loaded, 2=failed
  - policy_load_duration_seconds

Decision log:
  - decision_log_events_total{sink,result}
  - decision_log_dropped_total
*/
package metrics
