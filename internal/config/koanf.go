// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/authzgate/config.yaml",
	"/etc/authzgate/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Defaults shared with callers that build configuration programmatically.
const (
	DefaultEngineURL    = "http://localhost:8181"
	DefaultPolicyPath   = "authzen/allow"
	DefaultRoute        = "/access/v1/evaluation"
	DefaultEdgeQuery    = "data.http.authz.allow"
	DefaultMaxBodyBytes = 100 << 10
)

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Mode:              ModeGateway,
			Host:              "0.0.0.0",
			Port:              8080,
			AdminPort:         9090,
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Engine: EngineConfig{
			URL:          DefaultEngineURL,
			PolicyPath:   DefaultPolicyPath,
			Timeout:      10 * time.Second,
			MaxBodyBytes: DefaultMaxBodyBytes,
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:             true,
				MaxRequests:         3,
				Interval:            time.Minute,
				Timeout:             30 * time.Second,
				ConsecutiveFailures: 5,
			},
		},
		Gateway: GatewayConfig{
			Route:  DefaultRoute,
			Method: "POST",
		},
		Edge: EdgeConfig{
			Engine:      EdgeEngineRego,
			Query:       DefaultEdgeQuery,
			EvalTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		DecisionLog: DecisionLogConfig{
			Enabled:     true,
			BufferSize:  1024,
			NATSSubject: "authzgate.decisions",
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults
//  2. Config file (optional YAML)
//  3. Environment variables
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when set via env.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"authzgate_mode":      "server.mode",
	"http_host":           "server.host",
	"port":                "server.port",
	"admin_port":          "server.admin_port",
	"read_header_timeout": "server.read_header_timeout",
	"shutdown_timeout":    "server.shutdown_timeout",

	"opa_url":                      "engine.url",
	"opa_policy_path":              "engine.policy_path",
	"opa_timeout":                  "engine.timeout",
	"max_body_bytes":               "engine.max_body_bytes",
	"circuit_breaker_enabled":      "engine.circuit_breaker.enabled",
	"circuit_breaker_max_requests": "engine.circuit_breaker.max_requests",
	"circuit_breaker_interval":     "engine.circuit_breaker.interval",
	"circuit_breaker_timeout":      "engine.circuit_breaker.timeout",
	"circuit_breaker_failures":     "engine.circuit_breaker.consecutive_failures",
	"gateway_route":                "gateway.route",
	"gateway_method":               "gateway.method",
	"origin_url":                   "edge.origin_url",
	"edge_engine":                  "edge.engine",
	"edge_policy_file":             "edge.policy_file",
	"edge_bundle_path":             "edge.bundle_path",
	"edge_query":                   "edge.query",
	"casbin_model_path":            "edge.casbin_model_path",
	"casbin_policy_path":           "edge.casbin_policy_path",
	"edge_subject_header":          "edge.subject_header",
	"edge_preserve_host":           "edge.preserve_host",
	"edge_eval_timeout":            "edge.eval_timeout",
	"cors_origins":                 "security.cors_origins",
	"rate_limit_requests":          "security.rate_limit_requests",
	"rate_limit_window":            "security.rate_limit_window",
	"disable_rate_limit":           "security.rate_limit_disabled",
	"log_level":                    "logging.level",
	"log_format":                   "logging.format",
	"log_caller":                   "logging.caller",
	"decision_log_enabled":         "decision_log.enabled",
	"decision_log_buffer_size":     "decision_log.buffer_size",
	"decision_log_nats_url":        "decision_log.nats_url",
	"decision_log_nats_subject":    "decision_log.nats_subject",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - OPA_URL -> engine.url
//   - PORT -> server.port
//   - EDGE_ENGINE -> edge.engine
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
