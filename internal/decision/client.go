// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package decision

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/authzgate/internal/registry"
	"github.com/tomtom215/authzgate/internal/transform"
)

// DefaultTimeout bounds a single engine call.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of an engine response is read.
const maxResponseBytes = 10 << 20

// Client evaluates decision envelopes against the remote engine.
// It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	breaker    *Breaker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-call bound. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBreaker routes calls through a circuit breaker.
func WithBreaker(b *Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 32

	c := &Client{
		httpClient: &http.Client{Transport: transport},
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate sends env to endpoint.TargetURL and returns the caller-facing
// result. authHeader is forwarded as Authorization only when non-empty.
// The returned error, if any, is a *Failure.
func (c *Client) Evaluate(ctx context.Context, env transform.Envelope, endpoint registry.EndpointConfig, authHeader string) (json.RawMessage, error) {
	body, err := env.Marshal()
	if err != nil {
		return nil, internal(fmt.Errorf("encode envelope: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, endpoint.Method, endpoint.TargetURL, bytes.NewReader(body))
	if err != nil {
		return nil, internal(fmt.Errorf("build engine request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	if c.breaker == nil {
		return c.do(req)
	}
	return c.breaker.Execute(func() (json.RawMessage, error) {
		return c.do(req)
	})
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unreachable(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, unreachable(fmt.Errorf("read engine response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, engineFailure(resp.StatusCode, respBody)
	}
	return transform.FromEngineOutput(respBody), nil
}
