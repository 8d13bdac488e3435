// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/killstream/internal/hitevent"
	"github.com/tomtom215/killstream/internal/logging"
	"github.com/tomtom215/killstream/internal/metrics"
)

// BreakerConfig configures BreakerSink.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the default breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "sink",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerSink fails fast while the wrapped sink keeps failing. A rejected
// write is reported as ErrWrite like any other failed write.
type BreakerSink struct {
	next Sink
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerSink wraps next.
func NewBreakerSink(next Sink, cfg BreakerConfig) *BreakerSink {
	if cfg.Name == "" {
		cfg.Name = next.Name()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerState(name, int(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Sink circuit breaker state changed")
		},
	}
	metrics.RecordCircuitBreakerState(cfg.Name, int(gobreaker.StateClosed))
	return &BreakerSink{next: next, cb: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

// BulkInsert implements Sink.
func (b *BreakerSink) BulkInsert(ctx context.Context, records []hitevent.DurableRecord) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.BulkInsert(ctx, records)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return observe(b.next.Name(), time.Now(), len(records), fmt.Errorf("circuit %s: %w", b.cb.Name(), err))
	}
	return err
}

// State returns the current breaker state.
func (b *BreakerSink) State() gobreaker.State {
	return b.cb.State()
}

// Name implements Sink.
func (b *BreakerSink) Name() string {
	return b.next.Name()
}

// Close closes the wrapped sink.
func (b *BreakerSink) Close(ctx context.Context) error {
	return b.next.Close(ctx)
}
