// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

// Package buffer implements the key-scoped ephemeral buffer: one ordered,
// expiring sequence of encoded hit events per buffer key.
//
// Producers append at the head of a sequence and the flush orchestrator
// pops from the tail, so drain order equals arrival order. Two backends
// are provided:
//
//   - RedisBuffer: LPUSH/EXPIRE, SCAN, TYPE, RPOP against Redis.
//   - BadgerBuffer: an embedded badger database for single-node deployments.
//
// A pop that reports empty means the sequence was exhausted at that
// instant. Appends arriving afterwards start a new sequence under the
// same key.
package buffer

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps every failure to reach or operate the backing store.
var ErrUnavailable = errors.New("buffer unavailable")

// Kind is the declared container type of a buffer key.
type Kind int

const (
	// KindNone means the key does not exist (expired or never written).
	KindNone Kind = iota
	// KindSequence is an ordered sequence of entries, the only drainable kind.
	KindSequence
	// KindOther is any other container. The key collides with foreign data
	// and must not be drained.
	KindOther
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindSequence:
		return "sequence"
	case KindOther:
		return "not_a_sequence"
	default:
		return "unknown"
	}
}

// NotASequence reports whether the key exists but holds something other
// than a sequence.
func (k Kind) NotASequence() bool {
	return k == KindOther
}

// Buffer is the capability set the ingestion API and the orchestrator need.
// Each method is individually atomic at the store level.
type Buffer interface {
	// Append pushes entry onto the head of key's sequence and resets the
	// key's expiry to ttl, as one atomic step.
	Append(ctx context.Context, key string, entry []byte, ttl time.Duration) error

	// Expire sets or refreshes the expiry of key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Keys returns a materialized snapshot of the live keys starting with
	// prefix. Keys created after the call are not included.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Kind reports the declared container type of key.
	Kind(ctx context.Context, key string) (Kind, error)

	// PopOldest removes and returns the oldest entry of key's sequence.
	// ok is false when the sequence is empty.
	PopOldest(ctx context.Context, key string) (entry []byte, ok bool, err error)

	// Ping checks that the backing store answers.
	Ping(ctx context.Context) error

	// Name identifies the backend in logs and metrics.
	Name() string

	Close() error
}
