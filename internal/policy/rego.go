// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package policy

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

//go:embed default.rego
var defaultRegoPolicy string

// DefaultQuery is evaluated when RegoSource.Query is empty.
const DefaultQuery = "data.http.authz.allow"

// RegoSource selects where the rego policy comes from. At most one of
// PolicyFile and BundlePath may be set; with neither, the embedded default
// policy is used.
type RegoSource struct {
	Query      string
	PolicyFile string
	BundlePath string
	// Module, when set, is compiled instead of any file (tests, embedding).
	Module string
}

// RegoModule is a prepared rego query.
type RegoModule struct {
	query string
	pq    rego.PreparedEvalQuery
	name  string
}

// NewRegoModule parses, compiles and prepares the query.
func NewRegoModule(ctx context.Context, src RegoSource) (*RegoModule, error) {
	if src.Query == "" {
		src.Query = DefaultQuery
	}
	if src.PolicyFile != "" && src.BundlePath != "" {
		return nil, fmt.Errorf("policy file and bundle path are mutually exclusive")
	}

	opts := []func(*rego.Rego){rego.Query(src.Query)}
	var name string
	switch {
	case src.Module != "":
		opts = append(opts, rego.Module("inline.rego", src.Module))
		name = "rego:inline"
	case src.BundlePath != "":
		opts = append(opts, rego.LoadBundle(src.BundlePath))
		name = "rego:bundle:" + src.BundlePath
	case src.PolicyFile != "":
		opts = append(opts, rego.Load([]string{src.PolicyFile}, nil))
		name = "rego:file:" + src.PolicyFile
	default:
		opts = append(opts, rego.Module("default.rego", defaultRegoPolicy))
		name = "rego:default"
	}

	pq, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare rego query %s: %w", src.Query, err)
	}

	return &RegoModule{query: src.Query, pq: pq, name: name}, nil
}

// Name identifies the policy source in logs and health output.
func (m *RegoModule) Name() string {
	return m.name
}

// EvalBool evaluates the query. An undefined result is false; a result that
// is not a boolean is an error.
func (m *RegoModule) EvalBool(ctx context.Context, in Input) (bool, error) {
	rs, err := m.pq.Eval(ctx, rego.EvalInput(in.Document()))
	if err != nil {
		return false, fmt.Errorf("evaluate %s: %w", m.query, err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}

	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("query %s returned %T, want bool", m.query, rs[0].Expressions[0].Value)
	}
	return allowed, nil
}
