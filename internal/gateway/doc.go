// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

/*
Package gateway translates caller authorization requests into decision
engine calls.

Each request runs the same steps:

 1. Look up the request path in the endpoint registry (miss: 404)
 2. Check the method against the endpoint (mismatch: 405, engine not called)
 3. Echo X-Request-ID when the caller supplied one
 4. Wrap the JSON body as {"input": ...} and evaluate it
 5. Return the engine's "result" member with 200

Engine failures map onto fixed responses:

	engine error     engine status, {"error":"Target API error","message":...,"originalStatus":N}
	unreachable      503, {"error":"Service unavailable","message":"Unable to reach target API"}
	internal         500, {"error":"Internal server error","message":"An unexpected error occurred"}

Causes for unreachable and internal failures are logged, never returned to
the caller. No failure is retried.
*/
package gateway
