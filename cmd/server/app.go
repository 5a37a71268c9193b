// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package main

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tomtom215/authzgate/internal/api"
	"github.com/tomtom215/authzgate/internal/config"
	"github.com/tomtom215/authzgate/internal/decision"
	"github.com/tomtom215/authzgate/internal/decisionlog"
	"github.com/tomtom215/authzgate/internal/edge"
	"github.com/tomtom215/authzgate/internal/gateway"
	"github.com/tomtom215/authzgate/internal/logging"
	"github.com/tomtom215/authzgate/internal/policy"
	"github.com/tomtom215/authzgate/internal/registry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// components is everything run needs to start the supervisor tree.
type components struct {
	main      http.Handler
	admin     http.Handler // nil when ADMIN_PORT is 0
	holder    *policy.Holder
	load      policy.LoadFunc // nil in gateway mode
	decisions *decisionlog.Logger
}

// build wires the handlers for cfg.Server.Mode. The caller owns
// components.decisions and must Close it.
func build(cfg *config.Config) (*components, error) {
	dl, err := newDecisionLog(cfg.DecisionLog)
	if err != nil {
		return nil, err
	}

	mw := api.NewChiMiddlewareFromConfig(cfg.Security)
	c := &components{decisions: dl}

	switch cfg.Server.Mode {
	case config.ModeEdge:
		err = buildEdge(cfg, mw, c)
	default:
		err = buildGateway(cfg, mw, c)
	}
	if err != nil {
		_ = dl.Close()
		return nil, err
	}

	if cfg.Server.AdminPort != 0 {
		c.admin = api.AdminRouter(api.NewHealthHandler(cfg.Server.Mode, version, c.holder), mw)
	}
	return c, nil
}

func buildGateway(cfg *config.Config, mw *api.ChiMiddleware, c *components) error {
	entries := []registry.Entry{{
		Route:      cfg.Gateway.Route,
		PolicyPath: cfg.Engine.PolicyPath,
		Method:     cfg.Gateway.Method,
	}}
	for _, ep := range cfg.Gateway.Endpoints {
		entries = append(entries, registry.Entry{Route: ep.Route, PolicyPath: ep.PolicyPath, Method: ep.Method})
	}

	reg, err := registry.New(cfg.Engine.URL, entries...)
	if err != nil {
		return fmt.Errorf("build endpoint registry: %w", err)
	}

	opts := []decision.Option{decision.WithTimeout(cfg.Engine.Timeout)}
	if cb := cfg.Engine.CircuitBreaker; cb.Enabled {
		opts = append(opts, decision.WithBreaker(decision.NewBreaker(decision.BreakerSettings{
			MaxRequests:         cb.MaxRequests,
			Interval:            cb.Interval,
			Timeout:             cb.Timeout,
			ConsecutiveFailures: cb.ConsecutiveFailures,
		})))
	}

	handler := gateway.NewHandler(reg, decision.NewClient(opts...),
		gateway.WithDecisionLog(c.decisions),
		gateway.WithMaxBodyBytes(cfg.Engine.MaxBodyBytes),
	)
	c.main = api.GatewayRouter(handler, reg.Routes(), mw, api.NewHealthHandler(cfg.Server.Mode, version, nil))

	for _, route := range reg.Routes() {
		ep, _ := reg.Lookup(route)
		logging.Info().Str("route", route).Str("method", ep.Method).Str("target", ep.TargetURL).Msg("Gateway endpoint registered")
	}
	return nil
}

func buildEdge(cfg *config.Config, mw *api.ChiMiddleware, c *components) error {
	origin, err := url.Parse(cfg.Edge.OriginURL)
	if err != nil {
		return fmt.Errorf("parse origin URL: %w", err)
	}

	c.holder = policy.NewHolder()
	gk, err := edge.NewGatekeeper(c.holder, origin,
		edge.WithSubjectHeader(cfg.Edge.SubjectHeader),
		edge.WithPreserveHost(cfg.Edge.PreserveHost),
		edge.WithEvalTimeout(cfg.Edge.EvalTimeout),
		edge.WithDecisionLog(c.decisions),
	)
	if err != nil {
		return fmt.Errorf("build gatekeeper: %w", err)
	}

	c.load = policy.NewLoadFunc(policy.Source{
		Engine: cfg.Edge.Engine,
		Rego: policy.RegoSource{
			Query:      cfg.Edge.Query,
			PolicyFile: cfg.Edge.PolicyFile,
			BundlePath: cfg.Edge.BundlePath,
		},
		Casbin: policy.CasbinSource{
			ModelPath:  cfg.Edge.CasbinModelPath,
			PolicyPath: cfg.Edge.CasbinPolicyPath,
		},
	})
	c.main = api.EdgeRouter(gk, mw)

	logging.Info().Str("origin", origin.String()).Str("engine", cfg.Edge.Engine).Msg("Edge gatekeeper configured")
	return nil
}

// newDecisionLog returns nil (a no-op logger) when the decision log is off.
func newDecisionLog(cfg config.DecisionLogConfig) (*decisionlog.Logger, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	sinks := []decisionlog.Sink{decisionlog.NewLogSink()}
	if cfg.NATSURL != "" {
		natsSink, err := decisionlog.NewNATSSink(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, fmt.Errorf("decision log NATS sink: %w", err)
		}
		sinks = append(sinks, natsSink)
		logging.Info().Str("subject", natsSink.Subject()).Msg("Decision log publishing to NATS")
	}

	return decisionlog.New(decisionlog.Config{BufferSize: cfg.BufferSize}, sinks...), nil
}

func newHTTPServer(addr string, handler http.Handler, cfg config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
