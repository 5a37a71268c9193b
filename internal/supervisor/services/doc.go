// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

/*
Package services provides suture.Service wrappers for authzgate components.

	HTTPServerService     *http.Server with graceful shutdown
	PolicyLoaderService   one-shot edge policy load, never restarted

Each wrapper implements suture.Service and fmt.Stringer so supervisor
events name the service.
*/
package services
