// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

// Package logging provides centralized zerolog-based logging for Authzgate.
//
// A single global logger is configured at startup and shared by the gateway,
// the edge gatekeeper, the policy loader and the supervisor tree:
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("route", route).Msg("Endpoint registered")
//	logging.Ctx(ctx).Warn().Int("status", status).Msg("Decision engine error")
//
// # Request Context
//
// HTTP middleware stores a request ID and a correlation ID in the request
// context. Ctx(ctx) returns a logger with both fields attached so every line
// written while handling a request can be joined back to it.
//
// # slog Interop
//
// Libraries that require *slog.Logger (sutureslog) are given NewSlogLogger(),
// which writes through the same zerolog backend.
//
// # Configuration
//
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event is
// never written.
package logging
