// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Deployment modes.
const (
	ModeGateway = "gateway"
	ModeEdge    = "edge"
)

// Embedded policy engines available in edge mode.
const (
	EdgeEngineRego   = "rego"
	EdgeEngineCasbin = "casbin"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Engine      EngineConfig      `koanf:"engine"`
	Gateway     GatewayConfig     `koanf:"gateway"`
	Edge        EdgeConfig        `koanf:"edge"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
	DecisionLog DecisionLogConfig `koanf:"decision_log"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Mode              string        `koanf:"mode" validate:"oneof=gateway edge"`
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"gte=1,lte=65535"`
	AdminPort         int           `koanf:"admin_port" validate:"gte=0,lte=65535"` // edge mode health/metrics; 0 disables
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns host:port for the main listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// AdminAddr returns host:port for the admin listener.
func (s ServerConfig) AdminAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.AdminPort))
}

// EngineConfig configures the remote decision engine used in gateway mode.
type EngineConfig struct {
	URL            string               `koanf:"url" validate:"required,httpurl"`
	PolicyPath     string               `koanf:"policy_path" validate:"required,policypath"`
	Timeout        time.Duration        `koanf:"timeout" validate:"gt=0"`
	MaxBodyBytes   int64                `koanf:"max_body_bytes" validate:"gt=0"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
}

// CircuitBreakerConfig maps onto gobreaker.Settings.
type CircuitBreakerConfig struct {
	Enabled             bool          `koanf:"enabled"`
	MaxRequests         uint32        `koanf:"max_requests"`
	Interval            time.Duration `koanf:"interval"`
	Timeout             time.Duration `koanf:"timeout"`
	ConsecutiveFailures uint32        `koanf:"consecutive_failures"`
}

// GatewayConfig lists the routes the gateway answers.
type GatewayConfig struct {
	Route     string          `koanf:"route" validate:"required,route"`
	Method    string          `koanf:"method" validate:"required"`
	Endpoints []EndpointEntry `koanf:"endpoints" validate:"dive"`
}

// EndpointEntry is an additional static route bound to its own policy path.
type EndpointEntry struct {
	Route      string `koanf:"route" validate:"required,route"`
	PolicyPath string `koanf:"policy_path" validate:"required,policypath"`
	Method     string `koanf:"method"`
}

// EdgeConfig configures the in-process gatekeeper.
type EdgeConfig struct {
	OriginURL        string        `koanf:"origin_url"`
	Engine           string        `koanf:"engine" validate:"oneof=rego casbin"`
	PolicyFile       string        `koanf:"policy_file"`
	BundlePath       string        `koanf:"bundle_path"`
	Query            string        `koanf:"query" validate:"required"`
	CasbinModelPath  string        `koanf:"casbin_model_path"`
	CasbinPolicyPath string        `koanf:"casbin_policy_path"`
	EvalTimeout      time.Duration `koanf:"eval_timeout" validate:"gt=0"`

	// SubjectHeader names the header carrying the policy subject. Only set
	// it when a trusted upstream (auth proxy, ingress) sets or strips that
	// header; otherwise any caller can claim any subject. Empty means every
	// request is evaluated without a subject.
	SubjectHeader string `koanf:"subject_header"`
	PreserveHost  bool   `koanf:"preserve_host"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DecisionLogConfig configures the asynchronous decision log.
type DecisionLogConfig struct {
	Enabled     bool   `koanf:"enabled"`
	BufferSize  int    `koanf:"buffer_size" validate:"gte=1"`
	NATSURL     string `koanf:"nats_url"`
	NATSSubject string `koanf:"nats_subject"`
}

// Load loads configuration from defaults, an optional YAML file and the environment.
func Load() (*Config, error) {
	cfg, err := LoadWithKoanf()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
