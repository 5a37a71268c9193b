// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

/*
Package middleware provides infrastructure HTTP middleware shared by the
gateway, edge and admin routers.

  - RequestID: request/correlation IDs in the context, X-Request-ID relay
  - PrometheusMetrics: request counts and latency keyed by chi route pattern

Both are func(http.Handler) http.Handler so they compose with chi:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
