// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package hitevent

import (
	"time"
)

// DefaultKeyPrefix is the buffer key prefix of the reference deployment.
const DefaultKeyPrefix = "game:prod:kill:"

// HitEvent is one strike by an attacker in a match, in its buffered form.
// It is never modified after it has been appended to the buffer.
type HitEvent struct {
	MatchID    string `json:"matchId" validate:"notblank"`
	AttackerID string `json:"attackerId" validate:"notblank"`

	// HitID identifies the strike. It is not unique per key and is never
	// used for deduplication.
	HitID  string  `json:"hitId" validate:"notblank"`
	Damage int     `json:"damage" validate:"min=0"`
	Weapon *string `json:"weapon"`

	// Timestamp is epoch milliseconds. Zero or negative means "not set".
	Timestamp int64 `json:"ts"`
}

// DurableRecord is the flushed form of a HitEvent. TS is an ISO-8601
// instant string instead of epoch milliseconds.
type DurableRecord struct {
	MatchID    string  `json:"matchId" bson:"matchId"`
	AttackerID string  `json:"attackerId" bson:"attackerId"`
	HitID      string  `json:"hitId" bson:"hitId"`
	Damage     int     `json:"damage" bson:"damage"`
	Weapon     *string `json:"weapon" bson:"weapon"`
	TS         string  `json:"ts" bson:"ts"`
}

// BufferKey derives the key addressing the sequence of one match/attacker pair.
func BufferKey(prefix, matchID, attackerID string) string {
	return prefix + matchID + ":" + attackerID
}

// Key returns the buffer key of e under prefix.
func (e *HitEvent) Key(prefix string) string {
	return BufferKey(prefix, e.MatchID, e.AttackerID)
}

// WithTimestamp returns a copy of e whose Timestamp is now when unset.
func (e HitEvent) WithTimestamp(now time.Time) HitEvent {
	if e.Timestamp <= 0 {
		e.Timestamp = now.UnixMilli()
	}
	return e
}

// ToDurable converts e to its durable form. An unset timestamp is replaced
// with now before formatting.
func (e *HitEvent) ToDurable(now time.Time) DurableRecord {
	ts := e.Timestamp
	if ts <= 0 {
		ts = now.UnixMilli()
	}
	return DurableRecord{
		MatchID:    e.MatchID,
		AttackerID: e.AttackerID,
		HitID:      e.HitID,
		Damage:     e.Damage,
		Weapon:     e.Weapon,
		TS:         FormatInstant(time.UnixMilli(ts)),
	}
}

const (
	instantLayout       = "2006-01-02T15:04:05Z"
	instantMillisLayout = "2006-01-02T15:04:05.000Z"
)

// FormatInstant renders t as an ISO-8601 UTC instant with millisecond
// precision. The fraction is omitted when it is zero, so whole seconds
// print as 2024-01-02T03:04:05Z.
func FormatInstant(t time.Time) string {
	t = t.UTC().Truncate(time.Millisecond)
	if t.Nanosecond() == 0 {
		return t.Format(instantLayout)
	}
	return t.Format(instantMillisLayout)
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
