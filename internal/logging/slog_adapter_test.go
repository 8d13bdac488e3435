// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream
package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newBufferedSlog(buf *bytes.Buffer) *slog.Logger {
	return slog.New(&SlogHandler{logger: zerolog.New(buf)})
}

func TestSlogHandler_WritesAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedSlog(&buf)

	logger.Info("service started", "service", "flusher", "attempt", 2, "backoff", 15*time.Second, "err", errors.New("boom"))

	out := buf.String()
	for _, want := range []string{`"message":"service started"`, `"service":"flusher"`, `"attempt":2`, `"err":"boom"`, `"level":"info"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSlogHandler_GroupsAndWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedSlog(&buf).With("tree", "killstream").WithGroup("event")

	logger.Warn("restart", "name", "http-server")

	out := buf.String()
	if !strings.Contains(out, `"event.tree":"killstream"`) && !strings.Contains(out, `"tree":"killstream"`) {
		t.Errorf("missing WithAttrs attribute: %s", out)
	}
	if !strings.Contains(out, `"event.name":"http-server"`) {
		t.Errorf("missing grouped attribute: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("wrong level: %s", out)
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
