// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package config

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/authzgate/internal/validation"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks struct tags and the mode-dependent rules tags cannot express.
func (c *Config) Validate() error {
	c.normalize()

	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	switch c.Server.Mode {
	case ModeGateway:
		if err := c.validateGateway(); err != nil {
			return err
		}
	case ModeEdge:
		if err := c.validateEdge(); err != nil {
			return err
		}
	}

	if err := c.validateDecisionLog(); err != nil {
		return err
	}

	return c.validateLogging()
}

// normalize canonicalizes values that are compared case-insensitively.
func (c *Config) normalize() {
	c.Server.Mode = strings.ToLower(strings.TrimSpace(c.Server.Mode))
	c.Edge.Engine = strings.ToLower(strings.TrimSpace(c.Edge.Engine))
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Gateway.Method = strings.ToUpper(c.Gateway.Method)
	for i := range c.Gateway.Endpoints {
		if c.Gateway.Endpoints[i].Method == "" {
			c.Gateway.Endpoints[i].Method = http.MethodPost
		}
		c.Gateway.Endpoints[i].Method = strings.ToUpper(c.Gateway.Endpoints[i].Method)
	}
}

func (c *Config) validateServer() error {
	if c.Server.AdminPort != 0 && c.Server.AdminPort == c.Server.Port {
		return fmt.Errorf("ADMIN_PORT must differ from PORT (both %d)", c.Server.Port)
	}
	return nil
}

// reservedRoutes are served by the gateway listener itself.
var reservedRoutes = map[string]bool{"/health": true}

// validateGateway rejects reserved and duplicate routes; the registry is an
// exact-match map.
func (c *Config) validateGateway() error {
	if reservedRoutes[c.Gateway.Route] {
		return fmt.Errorf("gateway route %s is reserved", c.Gateway.Route)
	}
	seen := map[string]bool{c.Gateway.Route: true}
	for _, ep := range c.Gateway.Endpoints {
		if reservedRoutes[ep.Route] {
			return fmt.Errorf("gateway endpoint route %s is reserved", ep.Route)
		}
		if seen[ep.Route] {
			return fmt.Errorf("gateway endpoint route %s is configured more than once", ep.Route)
		}
		seen[ep.Route] = true
	}
	return nil
}

func (c *Config) validateEdge() error {
	if c.Edge.OriginURL == "" {
		return fmt.Errorf("ORIGIN_URL is required when AUTHZGATE_MODE=edge")
	}
	if err := validateHTTPURL(c.Edge.OriginURL, "ORIGIN_URL"); err != nil {
		return fmt.Errorf("ORIGIN_URL is invalid: %w", err)
	}
	if c.Server.AdminPort == 0 {
		return fmt.Errorf("ADMIN_PORT is required in edge mode; the edge listener forwards every path")
	}

	switch c.Edge.Engine {
	case EdgeEngineRego:
		if c.Edge.PolicyFile != "" && c.Edge.BundlePath != "" {
			return fmt.Errorf("EDGE_POLICY_FILE and EDGE_BUNDLE_PATH are mutually exclusive")
		}
	case EdgeEngineCasbin:
		if (c.Edge.CasbinModelPath == "") != (c.Edge.CasbinPolicyPath == "") {
			return fmt.Errorf("CASBIN_MODEL_PATH and CASBIN_POLICY_PATH must be set together")
		}
	}
	return nil
}

func (c *Config) validateDecisionLog() error {
	if c.DecisionLog.NATSURL == "" {
		return nil
	}
	if err := validateNATSURL(c.DecisionLog.NATSURL); err != nil {
		return fmt.Errorf("DECISION_LOG_NATS_URL is invalid: %w", err)
	}
	if c.DecisionLog.NATSSubject == "" {
		return fmt.Errorf("DECISION_LOG_NATS_SUBJECT is required when DECISION_LOG_NATS_URL is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	return nil
}
