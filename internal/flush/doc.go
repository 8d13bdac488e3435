// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

/*
Package flush drains the key-scoped buffer into the durable sink.

A Flusher runs cycles. Each cycle:

 1. takes one snapshot of the buffer keys under the prefix; keys created
    after the snapshot wait for the next cycle
 2. skips keys whose container is not a sequence (counted as malformed)
 3. pops each remaining key oldest-first until it reports empty, decoding
    every entry into a DurableRecord
 4. writes the shared batch to the sink every time it reaches BatchSize,
    whether or not the current key is finished
 5. writes whatever is left once every key has been visited

Only one cycle runs at a time. The periodic loop in Serve and a manual
RunCycle share the same lock, and a call that finds it held returns
ErrCycleInProgress instead of waiting.

# Delivery

Entries are popped before they are written. An entry that was popped and
then failed to decode, or whose batch failed to write, is gone: it is
counted in CycleResult.EntriesLost and logged, never retried. Within one
buffer key, records reach the sink in arrival order. Nothing is promised
across keys.

# Failures

Failures are isolated to the key that hit them. A buffer error or decode
error stops the current key and the cycle moves on; the rest of that key
stays buffered. A failed batch write loses the batch and stops the key being
drained when it was written. Only a failed key enumeration ends a cycle
early, and even then the partial CycleResult is returned together with the
error.

Every buffer and sink call runs under its own OpTimeout. A timeout is
handled like any other failure of that call.
*/
package flush
