// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

// Package hitevent defines the hit event data model and the codec used to
// store events in the key-scoped buffer.
//
// An event lives in two shapes:
//
//   - HitEvent: the buffered form, timestamp as epoch milliseconds (ts).
//   - DurableRecord: the flushed form, ts as an ISO-8601 instant string.
//
// Events of one match/attacker pair share a buffer key:
//
//	hitevent.BufferKey("game:prod:kill:", "m1", "a1") // "game:prod:kill:m1:a1"
package hitevent
