// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

// Package validation wraps go-playground/validator v10 with a shared
// validator instance and readable error messages.
//
// Configuration structs are annotated with validate tags and checked once at
// startup:
//
//	type EngineConfig struct {
//	    URL        string `validate:"required,httpurl"`
//	    PolicyPath string `validate:"required"`
//	}
//
//	if verr := validation.ValidateStruct(&cfg); verr != nil {
//	    return fmt.Errorf("invalid configuration: %w", verr)
//	}
//
// Custom tags:
//   - httpurl: absolute http or https URL with a host
//   - route: absolute URL path beginning with "/"
//   - policypath: slash-separated policy package path without leading slash
package validation
