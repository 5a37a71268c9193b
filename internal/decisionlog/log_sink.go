// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package decisionlog

import (
	"github.com/rs/zerolog"

	"github.com/tomtom215/authzgate/internal/logging"
)

// LogSink writes events to a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink returns a sink on the global logger tagged with
// component=decisionlog.
func NewLogSink() *LogSink {
	return &LogSink{logger: logging.WithComponent("decisionlog")}
}

// NewLogSinkWithLogger returns a sink writing to logger.
func NewLogSinkWithLogger(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Write implements Sink. Denials are logged at warn level.
func (s *LogSink) Write(event *Event) error {
	var ev *zerolog.Event
	if event.Allowed {
		ev = s.logger.Info()
	} else {
		ev = s.logger.Warn()
	}

	ev = ev.
		Str("event_id", event.ID).
		Time("event_time", event.Timestamp).
		Str("mode", event.Mode).
		Str("method", event.Method).
		Str("path", event.Path).
		Str("outcome", event.Outcome).
		Int("status", event.Status).
		Bool("allowed", event.Allowed).
		Dur("duration", event.Duration)

	if event.RequestID != "" {
		ev = ev.Str("request_id", event.RequestID)
	}
	if event.Route != "" {
		ev = ev.Str("route", event.Route)
	}
	if event.Subject != "" {
		ev = ev.Str("subject", event.Subject)
	}
	if event.Reason != "" {
		ev = ev.Str("reason", event.Reason)
	}

	ev.Msg("Authorization decision")
	return nil
}
