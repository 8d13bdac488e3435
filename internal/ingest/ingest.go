// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

/*
Package ingest accepts hit events from producers and appends them to the
key-scoped buffer.

An accepted event is only buffered. Nothing is written to the durable sink
here and the call never waits on a flush cycle. Once Ingest returns nil the
event is owned by the buffer: if it expires or a later flush fails, the
producer is not told.
*/
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/killstream/internal/buffer"
	"github.com/tomtom215/killstream/internal/hitevent"
	"github.com/tomtom215/killstream/internal/logging"
	"github.com/tomtom215/killstream/internal/metrics"
	"github.com/tomtom215/killstream/internal/validation"
)

// DefaultTTL is the key expiry used when the caller supplies none.
const DefaultTTL = 30 * time.Second

var (
	// ErrValidation wraps a *validation.RequestValidationError.
	ErrValidation = errors.New("invalid hit event")

	// ErrBufferUnavailable is returned when the append could not be made.
	// It also matches buffer.ErrUnavailable.
	ErrBufferUnavailable = buffer.ErrUnavailable
)

// Config configures a Service.
type Config struct {
	KeyPrefix  string
	DefaultTTL time.Duration
}

// Service is the ingestion entry point.
type Service struct {
	buf    buffer.Buffer
	codec  *hitevent.Codec
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates an ingestion service writing to buf.
func NewService(buf buffer.Buffer, cfg Config) (*Service, error) {
	if buf == nil {
		return nil, fmt.Errorf("buffer required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = hitevent.DefaultKeyPrefix
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	return &Service{
		buf:    buf,
		codec:  hitevent.NewCodec(),
		prefix: cfg.KeyPrefix,
		ttl:    cfg.DefaultTTL,
		now:    time.Now,
	}, nil
}

// Ingest validates event, stamps it with the current time when it carries
// no positive timestamp, and appends it to the tail of its buffer key.
// The key's expiry is reset to ttl, or to the default when ttl <= 0.
// It returns the buffer key the event was appended to.
func (s *Service) Ingest(ctx context.Context, event hitevent.HitEvent, ttl time.Duration) (string, error) {
	start := time.Now()

	if verr := validation.ValidateStruct(&event); verr != nil {
		metrics.RecordIngest(metrics.IngestInvalid, time.Since(start))
		return "", fmt.Errorf("%w: %w", ErrValidation, verr)
	}

	event = event.WithTimestamp(s.now())
	key := event.Key(s.prefix)

	entry, err := s.codec.Encode(&event)
	if err != nil {
		// Only reachable for values the validator already rejects.
		metrics.RecordIngest(metrics.IngestInvalid, time.Since(start))
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if ttl <= 0 {
		ttl = s.ttl
	}
	if err := s.buf.Append(ctx, key, entry, ttl); err != nil {
		metrics.RecordIngest(metrics.IngestUnavailable, time.Since(start))
		logging.CtxErr(ctx, err).Str("key", key).Msg("Failed to buffer hit event")
		if !errors.Is(err, buffer.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", buffer.ErrUnavailable, err)
		}
		return "", err
	}

	metrics.RecordIngest(metrics.IngestAccepted, time.Since(start))
	logging.Ctx(ctx).Debug().
		Str("key", key).
		Str("hit_id", event.HitID).
		Dur("ttl", ttl).
		Msg("Hit event buffered")
	return key, nil
}

// KeyPrefix returns the configured buffer key prefix.
func (s *Service) KeyPrefix() string {
	return s.prefix
}
