// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest results.
const (
	IngestAccepted    = "accepted"
	IngestInvalid     = "invalid"
	IngestUnavailable = "unavailable"
)

// Flush cycle outcomes.
const (
	CycleOK      = "ok"
	CyclePartial = "partial"
	CycleFailed  = "failed"
	CycleSkipped = "skipped"
)

var (
	// Ingestion
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killstream_ingest_total",
			Help: "Hit events received by the ingestion API, by result",
		},
		[]string{"result"},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "killstream_ingest_duration_seconds",
			Help:    "Time to validate, encode and append one hit event",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
	)

	// Buffer
	BufferErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killstream_buffer_errors_total",
			Help: "Failed buffer operations, by backend and operation",
		},
		[]string{"backend", "operation"}, // append, keys, kind, pop
	)

	// Flush orchestrator
	FlushCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killstream_flush_cycles_total",
			Help: "Flush cycles by outcome",
		},
		[]string{"outcome"},
	)

	FlushCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "killstream_flush_cycle_duration_seconds",
			Help:    "Wall time of one drain and flush cycle",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms .. ~40s
		},
	)

	FlushKeysScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "killstream_flush_keys_scanned_total",
			Help: "Buffer keys enumerated at cycle start",
		},
	)

	FlushKeysMalformed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "killstream_flush_keys_malformed_total",
			Help: "Buffer keys skipped because they do not hold a sequence",
		},
	)

	FlushKeysFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "killstream_flush_keys_failed_total",
			Help: "Buffer keys whose drain was aborted by a failure",
		},
	)

	FlushEntriesInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "killstream_flush_entries_inserted_total",
			Help: "Records written to the durable sink",
		},
	)

	FlushEntriesLost = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "killstream_flush_entries_lost_total",
			Help: "Entries popped from the buffer that never reached the sink",
		},
	)

	FlushDecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "killstream_flush_decode_errors_total",
			Help: "Buffer entries that could not be decoded",
		},
	)

	FlushSinkErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "killstream_flush_sink_errors_total",
			Help: "Failed bulk writes to the durable sink",
		},
	)

	FlushLastCycleTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "killstream_flush_last_cycle_timestamp_seconds",
			Help: "Unix time the last flush cycle finished",
		},
	)

	// Durable sink
	SinkBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "killstream_sink_batch_duration_seconds",
			Help:    "Duration of one bulk insert",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	SinkBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "killstream_sink_batch_size",
			Help:    "Records per bulk insert",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	SinkBatchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killstream_sink_batch_errors_total",
			Help: "Failed bulk inserts, by backend",
		},
		[]string{"backend"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "killstream_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killstream_api_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "killstream_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "killstream_api_active_requests",
			Help: "HTTP requests currently being served",
		},
	)
)

// CycleCounts is the subset of a flush cycle result exported as metrics.
type CycleCounts struct {
	KeysScanned     int
	KeysMalformed   int
	KeysFailed      int
	EntriesInserted int
	EntriesLost     int
	DecodeErrors    int
	SinkErrors      int
}

// RecordIngest records one ingestion call.
func RecordIngest(result string, duration time.Duration) {
	IngestTotal.WithLabelValues(result).Inc()
	IngestDuration.Observe(duration.Seconds())
}

// RecordBufferError records a failed buffer operation.
func RecordBufferError(backend, operation string) {
	BufferErrors.WithLabelValues(backend, operation).Inc()
}

// RecordFlushCycle records the outcome and counters of one cycle.
func RecordFlushCycle(outcome string, duration time.Duration, c CycleCounts) {
	FlushCyclesTotal.WithLabelValues(outcome).Inc()
	if outcome == CycleSkipped {
		return
	}
	FlushCycleDuration.Observe(duration.Seconds())
	FlushKeysScanned.Add(float64(c.KeysScanned))
	FlushKeysMalformed.Add(float64(c.KeysMalformed))
	FlushKeysFailed.Add(float64(c.KeysFailed))
	FlushEntriesInserted.Add(float64(c.EntriesInserted))
	FlushEntriesLost.Add(float64(c.EntriesLost))
	FlushDecodeErrors.Add(float64(c.DecodeErrors))
	FlushSinkErrors.Add(float64(c.SinkErrors))
	FlushLastCycleTimestamp.SetToCurrentTime()
}

// RecordSinkBatch records one bulk insert against a sink backend.
func RecordSinkBatch(backend string, duration time.Duration, batchSize int, err error) {
	SinkBatchDuration.WithLabelValues(backend).Observe(duration.Seconds())
	SinkBatchSize.Observe(float64(batchSize))
	if err != nil {
		SinkBatchErrors.WithLabelValues(backend).Inc()
	}
}

// RecordCircuitBreakerState sets the breaker gauge (0=closed, 1=half-open, 2=open).
func RecordCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordAPIRequest records an HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
