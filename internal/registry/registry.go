// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

// Package registry holds the immutable route -> endpoint table used by the
// gateway. It is built once at startup and only read afterwards.
package registry

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// ErrRouteNotFound is returned by Lookup when no endpoint is registered for a route.
var ErrRouteNotFound = errors.New("route not found")

// ErrDuplicateRoute is returned by New when two entries share a route.
var ErrDuplicateRoute = errors.New("duplicate route")

// TransformKind names the schema transform applied on one side of the engine call.
type TransformKind string

// Available transforms.
const (
	// InputWrap wraps the caller document as {"input": <document>}.
	InputWrap TransformKind = "input-wrap"
	// OutputResult extracts the engine response's "result" field, or {}.
	OutputResult TransformKind = "output-result"
)

// EndpointConfig describes how one caller-facing route maps onto the engine.
type EndpointConfig struct {
	Route           string
	TargetURL       string
	Method          string
	InputTransform  TransformKind
	OutputTransform TransformKind
}

// Entry is the startup description of one endpoint before URL resolution.
type Entry struct {
	Route      string
	PolicyPath string
	Method     string
}

// Registry is a read-only map of routes. The zero value has no endpoints.
type Registry struct {
	endpoints map[string]EndpointConfig
	routes    []string
}

// New resolves every entry against engineURL and returns the registry.
func New(engineURL string, entries ...Entry) (*Registry, error) {
	base, err := url.Parse(engineURL)
	if err != nil {
		return nil, fmt.Errorf("parse engine url: %w", err)
	}

	r := &Registry{endpoints: make(map[string]EndpointConfig, len(entries))}
	for _, e := range entries {
		if _, exists := r.endpoints[e.Route]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRoute, e.Route)
		}
		method := strings.ToUpper(e.Method)
		if method == "" {
			method = http.MethodPost
		}
		r.endpoints[e.Route] = EndpointConfig{
			Route:           e.Route,
			TargetURL:       ResolveTargetURL(base, e.PolicyPath),
			Method:          method,
			InputTransform:  InputWrap,
			OutputTransform: OutputResult,
		}
		r.routes = append(r.routes, e.Route)
	}
	return r, nil
}

// ResolveTargetURL resolves "v1/data/<policyPath>" relative to base, following
// RFC 3986 reference resolution: a base path without a trailing slash has its
// last segment replaced.
func ResolveTargetURL(base *url.URL, policyPath string) string {
	ref := &url.URL{Path: path.Join("v1/data", policyPath)}
	return base.ResolveReference(ref).String()
}

// Lookup returns the endpoint registered for route. Matching is exact; there
// are no prefixes, patterns or wildcards.
func (r *Registry) Lookup(route string) (EndpointConfig, error) {
	if ep, ok := r.endpoints[route]; ok {
		return ep, nil
	}
	return EndpointConfig{}, fmt.Errorf("%w: %s", ErrRouteNotFound, route)
}

// Routes returns the registered routes in registration order.
func (r *Registry) Routes() []string {
	out := make([]string, len(r.routes))
	copy(out, r.routes)
	return out
}

// Len returns the number of registered endpoints.
func (r *Registry) Len() int {
	return len(r.endpoints)
}
