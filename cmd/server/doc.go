// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

/*
Package main is the entry point for the authzgate server.

authzgate runs in one of two modes, selected by AUTHZGATE_MODE:

gateway (default): accepts authorization requests on a fixed route
(/access/v1/evaluation), wraps the caller JSON as {"input": ...} and asks a
remote OPA data API for a decision, returning the "result" member.

edge: evaluates an embedded policy (rego or casbin) in-process in front of
an origin. Every request on the edge listener is checked; allowed requests
are proxied to ORIGIN_URL, denied ones get a 403, and requests arriving
before the policy has loaded get a 503.

# Supervision

	RootSupervisor ("authzgate")
	├── PolicySupervisor ("policy-layer")
	│   └── policy-loader (edge mode)
	└── APISupervisor ("api-layer")
	    ├── gateway-http | edge-http
	    └── admin-http (ADMIN_PORT != 0)

# Configuration

Koanf v2 layers: defaults, then config.yaml (CONFIG_PATH or
/etc/authzgate/config.yaml), then environment variables.

	AUTHZGATE_MODE=gateway          # gateway or edge
	PORT=8080                       # main listener
	ADMIN_PORT=9090                 # /health, /metrics; required in edge mode
	OPA_URL=http://localhost:8181   # gateway: decision engine base URL
	OPA_POLICY_PATH=authzen/allow   # gateway: /v1/data/<path>
	GATEWAY_ROUTE=/access/v1/evaluation
	ORIGIN_URL=http://app:3000      # edge: upstream origin
	EDGE_ENGINE=rego                # rego or casbin
	EDGE_POLICY_FILE=/policy.rego   # optional, embedded default otherwise
	EDGE_SUBJECT_HEADER=X-User      # only behind a trusted upstream; unset by default
	EDGE_EVAL_TIMEOUT=10s
	DECISION_LOG_NATS_URL=nats://nats:4222
	LOG_LEVEL=info
	LOG_FORMAT=json

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. Listeners stop accepting
connections and drain in-flight requests for up to SHUTDOWN_TIMEOUT; the
decision log is flushed last.

# Example Usage

	export OPA_URL=http://opa:8181
	./authzgate

	export AUTHZGATE_MODE=edge ORIGIN_URL=http://localhost:3000
	./authzgate
*/
package main
