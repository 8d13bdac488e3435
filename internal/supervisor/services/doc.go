// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

/*
Package services adapts killstream components to suture.Service.

HTTPServerService turns ListenAndServe/Shutdown into Serve with a bounded
graceful drain. BrokerService owns the shutdown of an embedded NATS server
that main started ahead of the tree.

The flush scheduler (flush.Flusher) and Badger maintenance
(buffer.BadgerBuffer) implement Serve themselves and need no wrapper.
*/
package services
