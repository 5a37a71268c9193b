// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateIDs(t *testing.T) {
	t.Parallel()

	c1, c2 := GenerateCorrelationID(), GenerateCorrelationID()
	if len(c1) != 8 {
		t.Errorf("expected 8-character correlation ID, got %d", len(c1))
	}
	if c1 == c2 {
		t.Error("expected unique correlation IDs")
	}

	r := GenerateRequestID()
	if len(r) != 36 {
		t.Errorf("expected 36-character request ID, got %d", len(r))
	}
}

func TestContextIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" {
		t.Fatal("expected empty IDs on bare context")
	}

	ctx = ContextWithCorrelationID(ctx, "abc12345")
	ctx = ContextWithRequestID(ctx, "req-1")
	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("correlation ID = %q", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("request ID = %q", got)
	}

	fresh := ContextWithNewCorrelationID(context.Background())
	if CorrelationIDFromContext(fresh) == "" {
		t.Error("expected generated correlation ID")
	}
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	ctx := ContextWithRequestID(ContextWithCorrelationID(context.Background(), "corr0001"), "req-42")
	Ctx(ctx).Info().Msg("decision")

	output := buf.String()
	if !strings.Contains(output, `"request_id":"req-42"`) {
		t.Errorf("expected request_id, got: %s", output)
	}
	if !strings.Contains(output, `"correlation_id":"corr0001"`) {
		t.Errorf("expected correlation_id, got: %s", output)
	}
}
