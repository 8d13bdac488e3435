// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package flush

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/killstream/internal/logging"
)

// Serve runs cycles until ctx is cancelled. The next cycle starts Interval
// after the previous one finished, so a slow cycle delays the schedule
// rather than overlapping it. Serve implements suture.Service.
func (f *Flusher) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", f.cfg.Interval).
		Int("batch_size", f.cfg.BatchSize).
		Str("prefix", f.cfg.KeyPrefix).
		Str("sink", f.sink.Name()).
		Msg("Flush scheduler started")

	timer := time.NewTimer(f.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Flush scheduler stopped")
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := f.RunCycle(ctx); err != nil {
			if errors.Is(err, ErrCycleInProgress) {
				logging.Debug().Msg("Skipping scheduled flush, manual cycle running")
			}
			// Enumeration failures are already logged; the next tick retries.
		}
		timer.Reset(f.cfg.Interval)
	}
}

// String implements fmt.Stringer for suture logging.
func (f *Flusher) String() string {
	return "flush-scheduler"
}
