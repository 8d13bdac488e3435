// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package flush

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/killstream/internal/buffer"
	"github.com/tomtom215/killstream/internal/hitevent"
	"github.com/tomtom215/killstream/internal/logging"
	"github.com/tomtom215/killstream/internal/metrics"
	"github.com/tomtom215/killstream/internal/sink"
)

// ErrCycleInProgress is returned by RunCycle while another cycle holds the lock.
var ErrCycleInProgress = errors.New("flush cycle already in progress")

// Defaults for Config fields left at zero.
const (
	DefaultBatchSize = 100
	DefaultInterval  = 10 * time.Second
	DefaultOpTimeout = 5 * time.Second
)

// Config configures a Flusher.
type Config struct {
	KeyPrefix string
	BatchSize int
	Interval  time.Duration
	OpTimeout time.Duration
}

// Flusher is the drain and flush orchestrator.
type Flusher struct {
	buf   buffer.Buffer
	sink  sink.Sink
	codec *hitevent.Codec
	cfg   Config

	// cycleMu is held for the whole of a cycle. TryLock only.
	cycleMu sync.Mutex

	last atomic.Pointer[CycleResult]
	now  func() time.Time
}

// New creates a Flusher.
func New(buf buffer.Buffer, s sink.Sink, cfg Config) (*Flusher, error) {
	if buf == nil {
		return nil, fmt.Errorf("buffer required")
	}
	if s == nil {
		return nil, fmt.Errorf("sink required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = hitevent.DefaultKeyPrefix
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultOpTimeout
	}
	return &Flusher{
		buf:   buf,
		sink:  s,
		codec: hitevent.NewCodec(),
		cfg:   cfg,
		now:   time.Now,
	}, nil
}

// Config returns the effective configuration.
func (f *Flusher) Config() Config {
	return f.cfg
}

// LastResult returns the result of the most recent completed cycle.
func (f *Flusher) LastResult() (CycleResult, bool) {
	r := f.last.Load()
	if r == nil {
		return CycleResult{}, false
	}
	return *r, true
}

// RunCycle runs one cycle to completion. It returns ErrCycleInProgress
// without doing anything if another cycle is running. A non-nil error
// other than that means the key enumeration failed; the returned result
// is still valid.
func (f *Flusher) RunCycle(ctx context.Context) (CycleResult, error) {
	if !f.cycleMu.TryLock() {
		metrics.RecordFlushCycle(metrics.CycleSkipped, 0, metrics.CycleCounts{})
		return CycleResult{}, ErrCycleInProgress
	}
	defer f.cycleMu.Unlock()

	start := time.Now()
	c := &cycle{
		f: f,
		res: CycleResult{
			CycleID:   uuid.New().String(),
			StartedAt: f.now().UTC(),
		},
		batch: make([]hitevent.DurableRecord, 0, f.cfg.BatchSize),
	}
	ctx = logging.ContextWithCorrelationID(ctx, c.res.CycleID)

	err := c.run(ctx)
	if err != nil {
		c.res.Error = err.Error()
	}
	c.res.Duration = time.Since(start)

	res := c.res
	f.last.Store(&res)
	metrics.RecordFlushCycle(res.Outcome(), res.Duration, res.counts())
	f.logResult(ctx, &res)

	return res, err
}

func (f *Flusher) logResult(ctx context.Context, r *CycleResult) {
	ev := logging.CtxInfo(ctx)
	if r.Outcome() != metrics.CycleOK {
		ev = logging.CtxWarn(ctx)
	}
	ev.Str("outcome", r.Outcome()).
		Int("keys_scanned", r.KeysScanned).
		Int("keys_drained", r.KeysDrained).
		Int("keys_malformed", r.KeysMalformed).
		Int("keys_failed", r.KeysFailed).
		Int("entries_inserted", r.EntriesInserted).
		Int("entries_lost", r.EntriesLost).
		Int("batches", r.Batches).
		Dur("duration", r.Duration).
		Msg("Flush cycle complete")
}

// cycle holds the state of one RunCycle call.
type cycle struct {
	f     *Flusher
	res   CycleResult
	batch []hitevent.DurableRecord
}

func (c *cycle) run(ctx context.Context) error {
	keys, err := c.snapshot(ctx)
	if err != nil {
		c.res.BufferErrors++
		logging.CtxErr(ctx, err).Msg("Flush cycle could not enumerate buffer keys")
		return err
	}
	c.res.KeysScanned = keys.Len()

	for key, ok := keys.Next(); ok; key, ok = keys.Next() {
		if ctx.Err() != nil {
			c.res.Interrupted = true
			break
		}
		c.drainKey(ctx, key)
	}

	// The tail batch is written even when the cycle was interrupted; its
	// entries are already out of the buffer.
	if len(c.batch) > 0 {
		_, _ = c.write(ctx)
	}
	return nil
}

func (c *cycle) snapshot(ctx context.Context) (*keySnapshot, error) {
	opCtx, cancel := context.WithTimeout(ctx, c.f.cfg.OpTimeout)
	defer cancel()
	keys, err := c.f.buf.Keys(opCtx, c.f.cfg.KeyPrefix)
	if err != nil {
		return nil, err
	}
	return &keySnapshot{keys: keys}, nil
}

// drainKey pops key until empty. Failures are recorded on the result and
// end the key, never the cycle.
func (c *cycle) drainKey(ctx context.Context, key string) {
	kind, err := c.kind(ctx, key)
	if err != nil {
		c.res.BufferErrors++
		c.failKey(ctx, key, 0, 0, err)
		return
	}
	switch {
	case kind == buffer.KindNone:
		// Expired or drained between the snapshot and now.
		return
	case kind.NotASequence():
		c.res.KeysMalformed++
		logging.CtxWarn(ctx).Str("key", key).Str("kind", kind.String()).Msg("Skipping buffer key that is not a sequence")
		return
	}

	popped := 0
	for {
		if ctx.Err() != nil {
			c.res.Interrupted = true
			return
		}

		entry, ok, err := c.pop(ctx, key)
		if err != nil {
			c.res.BufferErrors++
			c.failKey(ctx, key, popped, 0, err)
			return
		}
		if !ok {
			break
		}
		popped++
		c.res.EntriesPopped++

		event, err := c.f.codec.Decode(entry)
		if err != nil {
			c.res.DecodeErrors++
			c.res.EntriesLost++
			c.failKey(ctx, key, popped, 1, err)
			return
		}
		c.batch = append(c.batch, event.ToDurable(c.f.now()))

		if len(c.batch) >= c.f.cfg.BatchSize {
			if lost, err := c.write(ctx); err != nil {
				c.failKey(ctx, key, popped, lost, err)
				return
			}
		}
	}

	c.res.KeysDrained++
	logging.Ctx(ctx).Debug().Str("key", key).Int("popped", popped).Msg("Buffer key drained")
}

func (c *cycle) failKey(ctx context.Context, key string, popped, lost int, err error) {
	c.res.KeysFailed++
	logging.CtxErr(ctx, err).
		Str("key", key).
		Int("popped", popped).
		Int("entries_lost", lost).
		Msg("Aborted drain of buffer key")
}

// write sends the current batch and starts a new one. On failure every
// record of the batch is counted lost and their number returned.
func (c *cycle) write(ctx context.Context) (int, error) {
	records := c.batch
	c.batch = make([]hitevent.DurableRecord, 0, c.f.cfg.BatchSize)
	c.res.Batches++

	// Popped records are written even while shutting down, bounded by
	// OpTimeout.
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.f.cfg.OpTimeout)
	defer cancel()

	if err := c.f.sink.BulkInsert(opCtx, records); err != nil {
		c.res.SinkErrors++
		c.res.EntriesLost += len(records)
		logging.CtxErr(ctx, err).
			Str("sink", c.f.sink.Name()).
			Int("batch_size", len(records)).
			Msg("Bulk write failed, batch lost")
		return len(records), err
	}
	c.res.EntriesInserted += len(records)
	return 0, nil
}

func (c *cycle) kind(ctx context.Context, key string) (buffer.Kind, error) {
	opCtx, cancel := context.WithTimeout(ctx, c.f.cfg.OpTimeout)
	defer cancel()
	return c.f.buf.Kind(opCtx, key)
}

func (c *cycle) pop(ctx context.Context, key string) ([]byte, bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, c.f.cfg.OpTimeout)
	defer cancel()
	return c.f.buf.PopOldest(opCtx, key)
}
