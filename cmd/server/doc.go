// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

/*
Package main is the killstream server.

killstream accepts hit events from game servers over HTTP, buffers them per
match and attacker in Redis (or an embedded Badger store), and periodically
drains every buffered sequence into a durable append-only sink: MongoDB,
DuckDB or a NATS JetStream stream.

# Supervisor Tree

	Root ("killstream")
	├── data-layer
	│   ├── flush-scheduler
	│   └── badger-maintenance (buffer.backend=badger)
	├── messaging-layer
	│   └── nats-broker (sink.backend=nats, nats.embedded=true)
	└── api-layer
	    └── http-server

# Startup Order

 1. Configuration: defaults, optional YAML file, environment
 2. Logging: zerolog
 3. Buffer: Redis or Badger
 4. Sink: MongoDB, DuckDB or JetStream, behind a circuit breaker
 5. Ingest service and flush orchestrator
 6. Chi router and HTTP server
 7. Supervisor tree until SIGINT or SIGTERM

# Configuration

Sources, highest priority last:

 1. Built-in defaults
 2. YAML file from CONFIG_PATH, ./config.yaml or /etc/killstream/config.yaml
 3. Environment variables (REDIS_ADDR, SINK_BACKEND, FLUSH_INTERVAL, ...)

# Shutdown

On signal the tree cancels every service. The HTTP server drains open
requests, the flush scheduler finishes its current cycle (records already
popped are still written), then the sink and buffer are closed.
*/
package main
