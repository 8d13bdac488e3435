// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

// Package sink implements the durable, append-only store that flushed hit
// events are bulk-written to.
//
// Every backend accepts a batch of DurableRecords in one call, stores each
// record independently (no upsert, no dedup key) and never updates or
// deletes what it wrote. Backends:
//
//   - MongoSink: ordered InsertMany into one collection (reference deployment).
//   - DuckDBSink: transactional insert into an append-only table.
//   - NATSSink: one JetStream message per record, for downstream consumers.
//   - MemorySink: in-process, for tests and local runs.
//
// BreakerSink wraps any of them with a circuit breaker.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/killstream/internal/hitevent"
	"github.com/tomtom215/killstream/internal/metrics"
)

// ErrWrite wraps every failed bulk write.
var ErrWrite = errors.New("sink write failed")

// Sink is the durable append-only store.
type Sink interface {
	// BulkInsert stores records in order. On error the caller cannot tell
	// which records, if any, were stored.
	BulkInsert(ctx context.Context, records []hitevent.DurableRecord) error

	// Name identifies the backend in logs and metrics.
	Name() string

	Close(ctx context.Context) error
}

// observe records metrics for one bulk insert and wraps err with ErrWrite.
func observe(backend string, start time.Time, n int, err error) error {
	metrics.RecordSinkBatch(backend, time.Since(start), n, err)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrWrite) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrWrite, backend, err)
}
