// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package flush

import (
	"time"

	"github.com/tomtom215/killstream/internal/metrics"
)

// CycleResult reports one flush cycle. Each cycle owns its own value.
type CycleResult struct {
	CycleID   string        `json:"cycle_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`

	KeysScanned   int `json:"keys_scanned"`   // keys in the snapshot
	KeysDrained   int `json:"keys_drained"`   // keys popped until empty
	KeysMalformed int `json:"keys_malformed"` // keys skipped as not a sequence
	KeysFailed    int `json:"keys_failed"`    // keys whose drain was aborted

	EntriesPopped   int `json:"entries_popped"`
	EntriesInserted int `json:"entries_inserted"`
	EntriesLost     int `json:"entries_lost"` // popped but never written

	DecodeErrors int `json:"decode_errors"`
	SinkErrors   int `json:"sink_errors"`
	BufferErrors int `json:"buffer_errors"`

	// Batches counts bulk-write calls, successful or not.
	Batches int `json:"batches"`

	// Interrupted is set when the context was cancelled before every key
	// was visited. Unvisited keys stay buffered.
	Interrupted bool `json:"interrupted,omitempty"`

	// Error is the message of the error that ended the cycle early.
	Error string `json:"error,omitempty"`
}

// Outcome classifies the cycle for metrics.
func (r *CycleResult) Outcome() string {
	switch {
	case r.Error != "":
		return metrics.CycleFailed
	case r.KeysFailed > 0 || r.EntriesLost > 0 || r.Interrupted:
		return metrics.CyclePartial
	default:
		return metrics.CycleOK
	}
}

func (r *CycleResult) counts() metrics.CycleCounts {
	return metrics.CycleCounts{
		KeysScanned:     r.KeysScanned,
		KeysMalformed:   r.KeysMalformed,
		KeysFailed:      r.KeysFailed,
		EntriesInserted: r.EntriesInserted,
		EntriesLost:     r.EntriesLost,
		DecodeErrors:    r.DecodeErrors,
		SinkErrors:      r.SinkErrors,
	}
}

// keySnapshot iterates the keys enumerated once at cycle start.
type keySnapshot struct {
	keys []string
	next int
}

func (s *keySnapshot) Next() (string, bool) {
	if s.next >= len(s.keys) {
		return "", false
	}
	k := s.keys[s.next]
	s.next++
	return k, true
}

func (s *keySnapshot) Len() int {
	return len(s.keys)
}
