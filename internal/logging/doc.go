// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

// Package logging provides the process-wide zerolog logger for Killstream.
//
// Every component logs through the package-level helpers so that the HTTP
// surface, the flush orchestrator and third-party libraries (suture,
// Watermill) share one output stream and one field layout.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("key", key).Int("popped", n).Msg("Drained buffer key")
//
// Context helpers carry a request ID (HTTP) or a correlation ID (one flush
// cycle) so that a whole cycle can be followed in the log:
//
//	ctx = logging.ContextWithCorrelationID(ctx, cycleID)
//	logging.Ctx(ctx).Warn().Err(err).Msg("Sink write failed")
//
// Environment variables (mapped through the config package):
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
package logging
