// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/authzgate/internal/gateway"
	"github.com/tomtom215/authzgate/internal/middleware"
)

// GatewayRouter builds the caller-facing gateway listener. Every route in
// routes is served by handler for all methods so the gateway can answer
// 405 itself; anything else gets the JSON 404.
func GatewayRouter(handler http.Handler, routes []string, mw *ChiMiddleware, health *HealthHandler) http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	r.With(mw.RateLimitHealth()).Get("/health", health.Health)

	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit("gateway"))
		r.Use(APISecurityHeaders())
		for _, route := range routes {
			r.Handle(route, handler)
		}
	})

	r.NotFound(gateway.NotFound)
	r.MethodNotAllowed(gateway.NotFound)

	return r
}

// EdgeRouter builds the edge listener. Every path goes to the gatekeeper;
// nothing is added to the relayed origin response.
func EdgeRouter(gatekeeper http.Handler, mw *ChiMiddleware) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestContext)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.RateLimit("edge"))

	r.Handle("/*", gatekeeper)

	return r
}

// AdminRouter builds the health and metrics listener.
func AdminRouter(health *HealthHandler, mw *ChiMiddleware) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Route("/health", func(r chi.Router) {
		r.Use(mw.RateLimitHealth())
		r.Get("/", health.Health)
		r.Get("/live", health.HealthLive)
		r.Get("/ready", health.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
