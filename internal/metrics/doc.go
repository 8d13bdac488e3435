// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

/*
Package metrics provides the Prometheus collectors for Killstream.

Collectors are registered on the default registry through promauto and are
exported at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

Ingestion:
  - killstream_ingest_total{result}: accepted, invalid, unavailable
  - killstream_ingest_duration_seconds

Flush orchestrator (one observation per cycle):
  - killstream_flush_cycles_total{outcome}: ok, partial, failed, skipped
  - killstream_flush_cycle_duration_seconds
  - killstream_flush_keys_scanned_total, killstream_flush_keys_malformed_total,
    killstream_flush_keys_failed_total
  - killstream_flush_entries_inserted_total, killstream_flush_entries_lost_total
  - killstream_flush_decode_errors_total, killstream_flush_sink_errors_total

Durable sink:
  - killstream_sink_batch_duration_seconds{backend}
  - killstream_sink_batch_size
  - killstream_circuit_breaker_state{name}

killstream_flush_entries_lost_total is the number to alert on: it counts
events that were accepted by the ingestion API and then dropped.
*/
package metrics
