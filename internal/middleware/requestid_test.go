// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/killstream/internal/logging"
)

func TestRequestID_GeneratesNewID(t *testing.T) {
	var capturedID, correlationID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
		correlationID = logging.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	RequestID(handler).ServeHTTP(rec, req)

	responseID := rec.Header().Get(HeaderRequestID)
	if _, err := uuid.Parse(responseID); err != nil {
		t.Errorf("Response X-Request-ID is not a valid UUID: %v", err)
	}
	if capturedID != responseID {
		t.Errorf("Context ID (%s) doesn't match response header ID (%s)", capturedID, responseID)
	}
	if correlationID == "" {
		t.Error("Expected correlation ID in context")
	}
}

func TestRequestID_PreservesUpstreamID(t *testing.T) {
	var capturedID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
	})

	existingID := "existing-request-id-12345"
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderRequestID, existingID)
	rec := httptest.NewRecorder()
	RequestID(handler).ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != existingID {
		t.Errorf("Expected X-Request-ID to be %s, got %s", existingID, got)
	}
	if capturedID != existingID {
		t.Errorf("Expected context ID to be %s, got %s", existingID, capturedID)
	}
}

func TestRequestID_ReplacesOversizedID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", maxRequestIDLen+1))
	rec := httptest.NewRecorder()
	RequestID(handler).ServeHTTP(rec, req)

	if _, err := uuid.Parse(rec.Header().Get(HeaderRequestID)); err != nil {
		t.Errorf("Expected oversized ID to be replaced with a UUID, got %q", rec.Header().Get(HeaderRequestID))
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
			mu.Lock()
			seen[rec.Header().Get(HeaderRequestID)] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != 50 {
		t.Errorf("Expected 50 unique request IDs, got %d", len(seen))
	}
}

func TestGetRequestID_WithoutID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("Expected empty request ID, got %q", id)
	}
}
