// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

// Package transform converts between the caller-facing decision schema and
// the decision engine's native request/response documents.
package transform

import (
	"bytes"

	"github.com/goccy/go-json"
)

// emptyObject is returned whenever the engine response carries no usable result.
var emptyObject = json.RawMessage(`{}`)

// Envelope is the engine request document. Input is the caller's JSON
// verbatim: no field is parsed, reordered or dropped.
type Envelope struct {
	Input json.RawMessage `json:"input"`
}

// ToEngineInput wraps a caller document under "input". An empty body becomes {}.
func ToEngineInput(input json.RawMessage) Envelope {
	if len(bytes.TrimSpace(input)) == 0 {
		return Envelope{Input: emptyObject}
	}
	return Envelope{Input: input}
}

// Marshal encodes the envelope for the engine request body.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

type engineResponse struct {
	Result json.RawMessage `json:"result"`
}

// FromEngineOutput returns the engine response's "result" member. Absent,
// null or unparseable results yield {}; any other JSON value (including false)
// is returned as-is. The result is never nil.
func FromEngineOutput(body []byte) json.RawMessage {
	var resp engineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return emptyObject
	}
	if len(resp.Result) == 0 || bytes.Equal(bytes.TrimSpace(resp.Result), []byte("null")) {
		return emptyObject
	}
	return resp.Result
}
