// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package decision

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Kind classifies a decision failure.
type Kind int

// Failure kinds.
const (
	KindEngine Kind = iota + 1
	KindUnreachable
	KindInternal
)

// String returns the metric/log label for the kind.
func (k Kind) String() string {
	switch k {
	case KindEngine:
		return "engine_error"
	case KindUnreachable:
		return "unreachable"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// UnknownEngineMessage is used when an engine error body carries no message.
const UnknownEngineMessage = "Unknown error from target API"

// Failure is the only error type returned by Client.Evaluate.
type Failure struct {
	Kind Kind
	// Status is the engine's HTTP status (KindEngine only).
	Status int
	// Message is the engine-supplied message as text (KindEngine only).
	Message string
	// MessageJSON is the same message as the JSON value the engine sent,
	// so a structured message reaches the caller with its type intact.
	MessageJSON json.RawMessage
	// Err is the underlying cause, for logs.
	Err error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case KindEngine:
		return fmt.Sprintf("decision engine returned %d: %s", f.Status, f.Message)
	case KindUnreachable:
		return fmt.Sprintf("decision engine unreachable: %v", f.Err)
	default:
		return fmt.Sprintf("decision request failed: %v", f.Err)
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func unreachable(err error) *Failure {
	return &Failure{Kind: KindUnreachable, Err: err}
}

func internal(err error) *Failure {
	return &Failure{Kind: KindInternal, Err: err}
}

// engineFailure builds a KindEngine failure from a non-2xx response body.
func engineFailure(status int, body []byte) *Failure {
	text, value := engineMessage(body)
	return &Failure{
		Kind:        KindEngine,
		Status:      status,
		Message:     text,
		MessageJSON: value,
		Err:         fmt.Errorf("engine status %d", status),
	}
}

var unknownMessageJSON = json.RawMessage(`"` + UnknownEngineMessage + `"`)

// engineMessage extracts the body's "message" member as log text and as the
// JSON value to relay. Missing, null, false, zero and empty-string messages
// fall back to UnknownEngineMessage; other values keep their JSON type.
func engineMessage(body []byte) (string, json.RawMessage) {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return UnknownEngineMessage, unknownMessageJSON
	}

	raw := bytes.TrimSpace(payload.Message)
	switch string(raw) {
	case "", "null", "false", "0", `""`:
		return UnknownEngineMessage, unknownMessageJSON
	}

	value := append(json.RawMessage(nil), raw...)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, value
	}
	return string(raw), value
}
