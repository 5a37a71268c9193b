// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

/*
Package policy loads and holds the in-process policy module used by the edge
gatekeeper.

# Load State

A Holder starts Unloaded and settles exactly once, to Loaded or FailedToLoad.
It never reverts and loading is never retried. The settled snapshot is
published through an atomic pointer, so readers on the request path see
either no module or a complete one; Ready() is closed when the state settles.

	holder := policy.NewHolder()
	go policy.Load(ctx, holder, policy.NewLoadFunc(src))

	mod, err := holder.Module() // policy.ErrNotReady until Loaded

Both Unloaded and FailedToLoad reject requests.

# Engines

  - RegoModule: OPA rego compiled with github.com/open-policy-agent/opa/v1/rego.
    Sources are an embedded default policy, a .rego file, or a bundle
    directory/tarball. The query must produce a boolean; an undefined result
    is false.
  - CasbinModule: casbin RBAC enforcer over (subject, path, method), with an
    embedded default model and policy.
*/
package policy
