// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

/*
Package api assembles the HTTP listeners using the Chi router.

Three routers are built here:

	GatewayRouter   caller-facing decision routes, /health, JSON 404 catch-all
	EdgeRouter      every path goes to the edge gatekeeper
	AdminRouter     /health, /health/live, /health/ready, /metrics

Middleware comes from the Chi ecosystem: go-chi/cors for CORS preflight
and go-chi/httprate for per-IP rate limiting. Request IDs and Prometheus
request metrics come from internal/middleware.

Route matching is exact. Gateway routes are fixed at startup from the
endpoint registry and never change while the process runs.
*/
package api
