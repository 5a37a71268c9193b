// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newBufferedSlog(level zerolog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(level)
	return slog.New(NewSlogHandlerWithLogger(zl)), &buf
}

func TestSlogHandler_Levels(t *testing.T) {
	t.Parallel()

	logger, buf := newBufferedSlog(zerolog.InfoLevel)
	logger.Debug("dropped")
	logger.Warn("kept")

	output := buf.String()
	if strings.Contains(output, "dropped") {
		t.Errorf("debug record should be filtered: %s", output)
	}
	if !strings.Contains(output, `"level":"warn"`) {
		t.Errorf("expected warn level, got: %s", output)
	}
}

func TestSlogHandler_Attrs(t *testing.T) {
	t.Parallel()

	logger, buf := newBufferedSlog(zerolog.DebugLevel)
	logger.With("service", "policy-loader").Info("restart",
		"attempt", 3,
		"ok", false,
		"backoff", 2*time.Second,
	)

	output := buf.String()
	for _, want := range []string{`"service":"policy-loader"`, `"attempt":3`, `"ok":false`, `"message":"restart"`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestSlogHandler_Groups(t *testing.T) {
	t.Parallel()

	logger, buf := newBufferedSlog(zerolog.DebugLevel)
	logger.WithGroup("supervisor").WithGroup("api").Info("event", "name", "gateway")
	logger.Info("nested", slog.Group("engine", slog.String("url", "http://opa")))

	output := buf.String()
	if !strings.Contains(output, `"supervisor.api.name":"gateway"`) {
		t.Errorf("expected grouped key, got: %s", output)
	}
	if !strings.Contains(output, `"engine.url":"http://opa"`) {
		t.Errorf("expected inline group key, got: %s", output)
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	t.Parallel()

	h := NewSlogHandlerWithLogger(zerolog.New(nil).Level(zerolog.ErrorLevel))
	if h.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be disabled at error level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at error level")
	}
	if h.WithGroup("") != h {
		t.Error("empty group should return same handler")
	}
}
