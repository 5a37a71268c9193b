// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package policy

import "context"

// Module is a compiled, read-only policy that answers allow/deny.
// Implementations must be safe for concurrent use.
type Module interface {
	EvalBool(ctx context.Context, in Input) (bool, error)
	Name() string
}

// Input is the document a policy sees for one HTTP request.
type Input struct {
	Method  string
	Path    string
	URL     string
	Host    string
	Query   map[string][]string
	Headers map[string]string
	Subject string
}

// Document returns the input as a JSON-shaped value for policy engines.
func (in Input) Document() map[string]any {
	headers := make(map[string]any, len(in.Headers))
	for k, v := range in.Headers {
		headers[k] = v
	}
	query := make(map[string]any, len(in.Query))
	for k, vs := range in.Query {
		values := make([]any, len(vs))
		for i, v := range vs {
			values[i] = v
		}
		query[k] = values
	}

	doc := map[string]any{
		"method":  in.Method,
		"path":    in.Path,
		"url":     in.URL,
		"host":    in.Host,
		"query":   query,
		"headers": headers,
	}
	if in.Subject != "" {
		doc["subject"] = in.Subject
	}
	return doc
}
