// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream
package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("CorrelationIDFromContext(empty) = %q, want empty", got)
	}

	ctx = ContextWithCorrelationID(ctx, "cycle-1")
	if got := CorrelationIDFromContext(ctx); got != "cycle-1" {
		t.Errorf("CorrelationIDFromContext() = %q, want %q", got, "cycle-1")
	}
}

func TestGenerateIDs(t *testing.T) {
	if got := len(GenerateCorrelationID()); got != 8 {
		t.Errorf("len(GenerateCorrelationID()) = %d, want 8", got)
	}
	if a, b := GenerateRequestID(), GenerateRequestID(); a == b {
		t.Errorf("GenerateRequestID() returned duplicate %q", a)
	}
}

func TestCtx_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	ctx := ContextWithCorrelationID(context.Background(), "abc12345")
	ctx = ContextWithRequestID(ctx, "req-1")
	CtxInfo(ctx).Msg("cycle done")

	out := buf.String()
	if !strings.Contains(out, `"correlation_id":"abc12345"`) {
		t.Errorf("missing correlation_id: %s", out)
	}
	if !strings.Contains(out, `"request_id":"req-1"`) {
		t.Errorf("missing request_id: %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	l := WithComponent("flush")
	l.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"component":"flush"`) {
		t.Errorf("missing component field: %s", buf.String())
	}
}
