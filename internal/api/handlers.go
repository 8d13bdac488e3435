// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/killstream/internal/buffer"
	"github.com/tomtom215/killstream/internal/flush"
	"github.com/tomtom215/killstream/internal/hitevent"
	"github.com/tomtom215/killstream/internal/ingest"
	"github.com/tomtom215/killstream/internal/logging"
	"github.com/tomtom215/killstream/internal/validation"
)

// Ingester buffers hit events.
type Ingester interface {
	Ingest(ctx context.Context, event hitevent.HitEvent, ttl time.Duration) (string, error)
}

// CycleRunner runs flush cycles on demand.
type CycleRunner interface {
	RunCycle(ctx context.Context) (flush.CycleResult, error)
	LastResult() (flush.CycleResult, bool)
}

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the API endpoints.
type Handler struct {
	ingester Ingester
	flusher  CycleRunner // nil when flushing is disabled
	buffer   Pinger

	readyTimeout time.Duration
	startTime    time.Time
}

// NewHandler creates a Handler. flusher may be nil.
func NewHandler(ingester Ingester, flusher CycleRunner, buf Pinger) *Handler {
	return &Handler{
		ingester:     ingester,
		flusher:      flusher,
		buffer:       buf,
		readyTimeout: 2 * time.Second,
		startTime:    time.Now(),
	}
}

// KillSave buffers one hit event.
func (h *Handler) KillSave(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req KillSaveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}

	key, err := h.ingester.Ingest(r.Context(), req.Event(), req.TTL())
	if err != nil {
		var verr *validation.RequestValidationError
		switch {
		case errors.As(err, &verr):
			apiErr := verr.ToAPIError()
			rw.ValidationError(apiErr.Message, apiErr.Details)
		case errors.Is(err, ingest.ErrValidation):
			rw.ValidationError(err.Error(), nil)
		case errors.Is(err, buffer.ErrUnavailable):
			rw.ServiceUnavailable("Event buffer unavailable")
		default:
			logging.CtxErr(r.Context(), err).Msg("Unexpected ingest failure")
			rw.InternalError("Failed to save event")
		}
		return
	}

	rw.Created(KillSaveResponse{Key: key})
}

// Flush runs one flush cycle and returns its result.
func (h *Handler) Flush(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.flusher == nil {
		rw.ServiceUnavailable("Flushing is disabled")
		return
	}

	res, err := h.flusher.RunCycle(r.Context())
	switch {
	case errors.Is(err, flush.ErrCycleInProgress):
		rw.Conflict("A flush cycle is already running")
	case err != nil:
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Flush cycle failed", res)
	default:
		rw.Success(res)
	}
}

// LastFlush returns the most recent cycle result.
func (h *Handler) LastFlush(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.flusher == nil {
		rw.ServiceUnavailable("Flushing is disabled")
		return
	}
	res, ok := h.flusher.LastResult()
	if !ok {
		rw.NotFound("No flush cycle has run yet")
		return
	}
	rw.Success(res)
}

// HealthLive always reports alive.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady reports ready when the buffer answers a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), h.readyTimeout)
	defer cancel()

	bufferOK := h.buffer != nil && h.buffer.Ping(ctx) == nil
	data := map[string]interface{}{
		"buffer_connected": bufferOK,
		"flush_enabled":    h.flusher != nil,
		"uptime":           time.Since(h.startTime).Seconds(),
	}
	if !bufferOK {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Buffer unreachable", data)
		return
	}
	rw.Success(data)
}
