// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package sink

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/killstream/internal/hitevent"
)

// MemorySink keeps records in memory. It records the size of every bulk
// write and can be told to fail, which makes it the sink of choice for
// orchestrator tests.
type MemorySink struct {
	mu         sync.Mutex
	records    []hitevent.DurableRecord
	batchSizes []int
	failNext   []error
	failAll    error
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// BulkInsert appends records unless a failure is queued.
func (m *MemorySink) BulkInsert(ctx context.Context, records []hitevent.DurableRecord) error {
	start := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batchSizes = append(m.batchSizes, len(records))

	if err := ctx.Err(); err != nil {
		return observe(m.Name(), start, len(records), err)
	}
	if len(m.failNext) > 0 {
		err := m.failNext[0]
		m.failNext = m.failNext[1:]
		if err != nil {
			return observe(m.Name(), start, len(records), err)
		}
	}
	if m.failAll != nil {
		return observe(m.Name(), start, len(records), m.failAll)
	}

	m.records = append(m.records, records...)
	return observe(m.Name(), start, len(records), nil)
}

// FailNext queues results for the next bulk writes: a nil entry lets the
// write succeed, a non-nil entry fails it.
func (m *MemorySink) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = append(m.failNext, errs...)
}

// FailAll makes every write fail with err until it is called with nil.
func (m *MemorySink) FailAll(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = err
}

// Records returns a copy of the stored records.
func (m *MemorySink) Records() []hitevent.DurableRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]hitevent.DurableRecord, len(m.records))
	copy(out, m.records)
	return out
}

// BatchSizes returns the size of every attempted bulk write, failed ones included.
func (m *MemorySink) BatchSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.batchSizes))
	copy(out, m.batchSizes)
	return out
}

// Name implements Sink.
func (m *MemorySink) Name() string {
	return "memory"
}

// Close implements Sink.
func (m *MemorySink) Close(context.Context) error {
	return nil
}
