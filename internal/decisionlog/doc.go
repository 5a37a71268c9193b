// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

/*
Package decisionlog records one event per authorization decision.

Events are queued on a bounded buffer and written asynchronously to one or
more sinks, so a slow sink never adds latency to the request path. When the
buffer is full the event is dropped and counted in
decision_log_dropped_total.

Sinks:
  - LogSink writes each event as a structured zerolog line
  - NATSSink publishes each event as JSON on a NATS subject

Usage:

	l := decisionlog.New(decisionlog.Config{BufferSize: 1024}, decisionlog.NewLogSink())
	defer l.Close()

	l.Log(&decisionlog.Event{Mode: "edge", Path: "/users/alice", Allowed: true})
*/
package decisionlog
