// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

/*
Package edge evaluates an in-process policy in front of an origin.

The Gatekeeper intercepts every request on the edge listener:

	policy not loaded        503 {"error":"Policy not ready yet."}
	evaluation error         403 {"error":"Not allowed by policy"}
	policy returns false     403 {"error":"Not allowed by policy"}
	policy returns true      request forwarded, origin response relayed
	origin unreachable       502 {"error":"Origin unreachable"}

The origin is never contacted unless the policy returned true.
*/
package edge
