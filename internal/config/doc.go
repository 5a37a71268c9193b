// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

/*
Package config provides layered configuration loading for Authzgate.

Configuration is resolved once at startup with Koanf v2:

 1. Defaults from defaultConfig()
 2. Optional YAML file (CONFIG_PATH, or config.yaml / /etc/authzgate/config.yaml)
 3. Environment variables mapped through envTransformFunc

The resulting Config is validated with struct tags (internal/validation) and
mode-specific cross-field checks. It is immutable afterwards; nothing in the
process reloads it.

# Environment Variables

Server:
  - AUTHZGATE_MODE: gateway or edge (default: gateway)
  - HTTP_HOST: bind address (default: 0.0.0.0)
  - PORT: listen port (default: 8080)
  - ADMIN_PORT: health and metrics listener in edge mode (default: 9090)

Decision engine (gateway mode):
  - OPA_URL: engine base URL (default: http://localhost:8181)
  - OPA_POLICY_PATH: policy package path (default: authzen/allow)
  - OPA_TIMEOUT: per-call bound (default: 10s)

Edge mode:
  - ORIGIN_URL: upstream the gatekeeper forwards allowed requests to
  - EDGE_ENGINE: rego or casbin (default: rego)
  - EDGE_POLICY_FILE, EDGE_BUNDLE_PATH, EDGE_QUERY
  - CASBIN_MODEL_PATH, CASBIN_POLICY_PATH
  - EDGE_EVAL_TIMEOUT: per-evaluation bound (default: 10s)
  - EDGE_SUBJECT_HEADER: header holding the policy subject (default: none).
    Set it only behind a trusted upstream that owns the header.

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# YAML Example

	server:
	  mode: gateway
	  port: 8080
	engine:
	  url: http://opa:8181
	  policy_path: authzen/allow
	gateway:
	  route: /access/v1/evaluation
	  endpoints:
	    - route: /access/v1/evaluations
	      policy_path: authzen/batch
*/
package config
