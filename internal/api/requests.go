// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package api

import (
	"math"
	"time"

	"github.com/tomtom215/killstream/internal/hitevent"
)

// maxBodyBytes caps a killSave request body.
const maxBodyBytes = 16 << 10

// KillSaveRequest is the body of POST /api/v1/ingame/killSave.
type KillSaveRequest struct {
	MatchID    string  `json:"matchId"`
	AttackerID string  `json:"attackerId"`
	HitID      string  `json:"hitId"`
	Damage     int     `json:"damage"`
	Weapon     *string `json:"weapon"`

	// TTLSeconds overrides the buffer key expiry when positive.
	TTLSeconds int64 `json:"ttlSeconds"`

	// TimeStamp is epoch milliseconds; zero or negative means "now".
	TimeStamp int64 `json:"timeStamp"`
}

// Event converts the request into a HitEvent.
func (r *KillSaveRequest) Event() hitevent.HitEvent {
	return hitevent.HitEvent{
		MatchID:    r.MatchID,
		AttackerID: r.AttackerID,
		HitID:      r.HitID,
		Damage:     r.Damage,
		Weapon:     r.Weapon,
		Timestamp:  r.TimeStamp,
	}
}

// TTL returns the requested expiry, or 0 for the default.
func (r *KillSaveRequest) TTL() time.Duration {
	if r.TTLSeconds <= 0 {
		return 0
	}
	if r.TTLSeconds > math.MaxInt64/int64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(r.TTLSeconds) * time.Second
}

// KillSaveResponse is the data of a successful killSave.
type KillSaveResponse struct {
	Key string `json:"key"`
}
