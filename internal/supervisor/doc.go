// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

/*
Package supervisor runs the long-lived killstream services under a suture v4
tree.

	Root ("killstream")
	├── data-layer
	│   ├── flush-scheduler     (if flush.enabled)
	│   └── badger-maintenance  (if buffer.backend=badger)
	├── messaging-layer
	│   └── nats-broker         (if sink.backend=nats and nats.embedded)
	└── api-layer
	    └── http-server

Each layer restarts its own services with backoff, so a crashing scheduler
does not take the HTTP listener down with it. Supervisor events are logged
through sutureslog on top of the zerolog slog adapter.

Canceling the context passed to Serve stops every service. Services get
ShutdownTimeout to return; UnstoppedServiceReport lists any that did not.
*/
package supervisor
