// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package hitevent

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrDecode is returned for a buffer entry that is not a valid encoded HitEvent.
var ErrDecode = errors.New("decode hit event")

// wireEvent mirrors HitEvent with pointer fields so that missing keys can
// be told apart from zero values while decoding.
type wireEvent struct {
	MatchID    *string `json:"matchId"`
	AttackerID *string `json:"attackerId"`
	HitID      *string `json:"hitId"`
	Damage     *int    `json:"damage"`
	Weapon     *string `json:"weapon"`
	TS         *int64  `json:"ts"`
}

// Codec converts HitEvents to and from the compact JSON stored in the buffer:
//
//	{"matchId":"m1","attackerId":"a1","hitId":"h1","damage":10,"weapon":"sword","ts":1700000000000}
type Codec struct{}

// NewCodec creates a codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Encode serializes e. A nil weapon is written as null.
func (c *Codec) Encode(e *HitEvent) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal hit event: %w", err)
	}
	return data, nil
}

// Decode parses one buffer entry. matchId, attackerId and hitId must be
// present; a missing damage decodes as 0 and a missing ts as 0 (unset).
// Every failure wraps ErrDecode.
func (c *Codec) Decode(data []byte) (HitEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return HitEvent{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	switch {
	case w.MatchID == nil:
		return HitEvent{}, fmt.Errorf("%w: missing matchId", ErrDecode)
	case w.AttackerID == nil:
		return HitEvent{}, fmt.Errorf("%w: missing attackerId", ErrDecode)
	case w.HitID == nil:
		return HitEvent{}, fmt.Errorf("%w: missing hitId", ErrDecode)
	}

	e := HitEvent{
		MatchID:    *w.MatchID,
		AttackerID: *w.AttackerID,
		HitID:      *w.HitID,
		Weapon:     w.Weapon,
	}
	if w.Damage != nil {
		e.Damage = *w.Damage
	}
	if w.TS != nil {
		e.Timestamp = *w.TS
	}
	return e, nil
}
