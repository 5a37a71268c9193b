// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

/*
Package decision calls the remote policy decision engine (the OPA REST data
API) for the gateway.

Each Evaluate call makes exactly one attempt bounded by the configured timeout
(10s by default). There are no retries and nothing is cached. Every failure is
a *Failure whose Kind tells the gateway how to answer the caller:

  - KindEngine: the engine answered with a non-2xx status; Status and Message
    are relayed to the caller
  - KindUnreachable: no usable answer (network error, timeout, truncated
    body, open circuit)
  - KindInternal: the request could not be built

	raw, err := client.Evaluate(ctx, transform.ToEngineInput(body), endpoint, r.Header.Get("Authorization"))
	var f *decision.Failure
	if errors.As(err, &f) {
	    switch f.Kind { ... }
	}

An optional gobreaker circuit breaker sits in front of the engine. Only
unreachable outcomes count against it, so an engine that answers 4xx/5xx
keeps the circuit closed; while open, calls fail fast as KindUnreachable.
*/
package decision
