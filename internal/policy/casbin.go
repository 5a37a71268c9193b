// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package policy

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

//go:embed casbin_model.conf
var embeddedCasbinModel string

//go:embed casbin_policy.csv
var embeddedCasbinPolicy string

// AnonymousSubject is the casbin subject used when the request carries none.
const AnonymousSubject = "anonymous"

// CasbinSource selects the casbin model and policy. Empty paths use the
// embedded defaults.
type CasbinSource struct {
	ModelPath  string
	PolicyPath string
}

// CasbinModule enforces (subject, path, method) against a casbin RBAC model.
type CasbinModule struct {
	enforcer *casbin.SyncedEnforcer
	name     string
}

// NewCasbinModule loads the model and policy.
func NewCasbinModule(src CasbinSource) (*CasbinModule, error) {
	var m model.Model
	var err error
	if src.ModelPath != "" {
		if !fileExists(src.ModelPath) {
			return nil, fmt.Errorf("casbin model %s: %w", src.ModelPath, os.ErrNotExist)
		}
		m, err = model.NewModelFromFile(src.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedCasbinModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	name := "casbin:default"
	if src.PolicyPath != "" {
		if !fileExists(src.PolicyPath) {
			return nil, fmt.Errorf("casbin policy %s: %w", src.PolicyPath, os.ErrNotExist)
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(src.PolicyPath))
		name = "casbin:file:" + src.PolicyPath
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedCasbinPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	return &CasbinModule{enforcer: enforcer, name: name}, nil
}

// loadEmbeddedPolicy parses CSV policy lines into the enforcer.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			return fmt.Errorf("malformed policy line %q", line)
		}
		rule := make([]interface{}, 0, len(parts)-1)
		for _, p := range parts[1:] {
			rule = append(rule, strings.TrimSpace(p))
		}

		var err error
		switch ptype := strings.TrimSpace(parts[0]); ptype {
		case "p":
			_, err = enforcer.AddPolicy(rule...)
		case "g":
			_, err = enforcer.AddGroupingPolicy(rule...)
		default:
			err = fmt.Errorf("unknown policy type %q", ptype)
		}
		if err != nil {
			return fmt.Errorf("failed to add policy %v: %w", rule, err)
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Name identifies the policy source.
func (m *CasbinModule) Name() string {
	return m.name
}

// EvalBool enforces the request's subject, path and method.
func (m *CasbinModule) EvalBool(_ context.Context, in Input) (bool, error) {
	subject := in.Subject
	if subject == "" {
		subject = AnonymousSubject
	}
	allowed, err := m.enforcer.Enforce(subject, in.Path, in.Method)
	if err != nil {
		return false, fmt.Errorf("casbin enforce: %w", err)
	}
	return allowed, nil
}
