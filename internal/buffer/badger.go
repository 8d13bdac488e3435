// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package buffer

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/killstream/internal/logging"
	"github.com/tomtom215/killstream/internal/metrics"
)

// Key layout:
//
//	m:<key>                 marker; value is the container type, carries the TTL
//	i:<key>\x00<seq uint64> one entry; seq is a global monotonic sequence
//
// Entries carry no TTL of their own. A sequence is live only while its
// marker is; entries orphaned by an expired marker are purged on the next
// append to that key and by the periodic sweep.
const (
	markerPrefix = "m:"
	itemPrefix   = "i:"
	seqKey       = "s:items"

	typeList = "list"

	maxTxnRetries = 16
)

// BadgerConfig configures the embedded buffer.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM. Intended for tests and demos.
	InMemory bool

	// GCInterval is how often Serve sweeps orphaned entries and runs value log GC.
	GCInterval time.Duration
}

// BadgerBuffer is a Buffer over an embedded badger database.
type BadgerBuffer struct {
	db     *badger.DB
	seq    *badger.Sequence
	config BadgerConfig

	mu     sync.RWMutex
	closed bool
}

// OpenBadger opens (or creates) the embedded buffer.
func OpenBadger(cfg BadgerConfig) (*BadgerBuffer, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger path required")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = nil

	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 5 * time.Minute
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	seq, err := db.GetSequence([]byte(seqKey), 1000)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("badger sequence: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Msg("Badger buffer opened")
	return &BadgerBuffer{db: db, seq: seq, config: cfg}, nil
}

func markerKey(key string) []byte {
	return []byte(markerPrefix + key)
}

func itemsPrefix(key string) []byte {
	return []byte(itemPrefix + key + "\x00")
}

func itemKey(key string, n uint64) []byte {
	p := itemsPrefix(key)
	out := make([]byte, len(p)+8)
	copy(out, p)
	binary.BigEndian.PutUint64(out[len(p):], n)
	return out
}

// Append writes the entry and refreshes the marker TTL in one transaction.
// When no live marker exists the key starts a new sequence, so leftovers
// of an expired one are deleted first.
func (b *BadgerBuffer) Append(ctx context.Context, key string, entry []byte, ttl time.Duration) error {
	if err := b.check(ctx); err != nil {
		return b.fail("append", key, err)
	}
	n, err := b.seq.Next()
	if err != nil {
		return b.fail("append", key, err)
	}

	err = b.update(func(txn *badger.Txn) error {
		kind, err := readKind(txn, key)
		if err != nil {
			return err
		}
		switch kind {
		case KindOther:
			return fmt.Errorf("key %s holds a non-sequence value", key)
		case KindNone:
			if err := deletePrefix(txn, itemsPrefix(key)); err != nil {
				return err
			}
		}
		if err := txn.Set(itemKey(key, n), entry); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(markerKey(key), []byte(typeList)).WithTTL(ttl))
	})
	if err != nil {
		return b.fail("append", key, err)
	}
	return nil
}

// Expire rewrites the marker with a new TTL. Missing keys are left alone.
func (b *BadgerBuffer) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := b.check(ctx); err != nil {
		return b.fail("expire", key, err)
	}
	err := b.update(func(txn *badger.Txn) error {
		item, err := txn.Get(markerKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(markerKey(key), val).WithTTL(ttl))
	})
	if err != nil {
		return b.fail("expire", key, err)
	}
	return nil
}

// Keys lists live markers under prefix. Expired markers are skipped by badger.
func (b *BadgerBuffer) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := b.check(ctx); err != nil {
		return nil, b.fail("keys", prefix, err)
	}
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(markerPrefix + prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(markerPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, b.fail("keys", prefix, err)
	}
	return keys, nil
}

// Kind reads the marker of key.
func (b *BadgerBuffer) Kind(ctx context.Context, key string) (Kind, error) {
	if err := b.check(ctx); err != nil {
		return KindNone, b.fail("kind", key, err)
	}
	var kind Kind
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		kind, err = readKind(txn, key)
		return err
	})
	if err != nil {
		return KindNone, b.fail("kind", key, err)
	}
	return kind, nil
}

// PopOldest deletes and returns the lowest-sequence entry of a live key.
func (b *BadgerBuffer) PopOldest(ctx context.Context, key string) ([]byte, bool, error) {
	if err := b.check(ctx); err != nil {
		return nil, false, b.fail("pop", key, err)
	}
	var (
		entry []byte
		found bool
	)
	err := b.update(func(txn *badger.Txn) error {
		entry, found = nil, false

		kind, err := readKind(txn, key)
		if err != nil {
			return err
		}
		if kind != KindSequence {
			return nil
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = itemsPrefix(key)
		it := txn.NewIterator(opts)

		it.Rewind()
		if !it.Valid() {
			it.Close()
			return nil
		}
		item := it.Item()
		k := item.KeyCopy(nil)
		entry, err = item.ValueCopy(nil)
		it.Close()
		if err != nil {
			return err
		}
		found = true
		return txn.Delete(k)
	})
	if err != nil {
		return nil, false, b.fail("pop", key, err)
	}
	return entry, found, nil
}

// Ping reports whether the database is open.
func (b *BadgerBuffer) Ping(ctx context.Context) error {
	if err := b.check(ctx); err != nil {
		return b.fail("ping", "", err)
	}
	return nil
}

// Name implements Buffer.
func (b *BadgerBuffer) Name() string {
	return "badger"
}

// Close releases the sequence and closes the database.
func (b *BadgerBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	if err := b.seq.Release(); err != nil {
		logging.Warn().Err(err).Msg("Release badger sequence")
	}
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}
	logging.Info().Msg("Badger buffer closed")
	return nil
}

// Sweep deletes entries whose marker has expired. It returns how many
// entries were removed.
func (b *BadgerBuffer) Sweep(ctx context.Context) (int, error) {
	if err := b.check(ctx); err != nil {
		return 0, err
	}

	orphans := make(map[string]struct{})
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(itemPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			raw := it.Item().Key()[len(itemPrefix):]
			sep := bytes.IndexByte(raw, 0)
			if sep < 0 {
				continue
			}
			key := string(raw[:sep])
			if _, done := orphans[key]; done {
				continue
			}
			if _, err := txn.Get(markerKey(key)); errors.Is(err, badger.ErrKeyNotFound) {
				orphans[key] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	removed := 0
	for key := range orphans {
		var n int
		err := b.update(func(txn *badger.Txn) error {
			n = 0
			kind, err := readKind(txn, key)
			if err != nil || kind != KindNone {
				return err
			}
			if n, err = countPrefix(txn, itemsPrefix(key)); err != nil {
				return err
			}
			return deletePrefix(txn, itemsPrefix(key))
		})
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

// RunGC runs value log GC until badger reports nothing left to rewrite.
func (b *BadgerBuffer) RunGC() error {
	if b.config.InMemory {
		return nil
	}
	for {
		err := b.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run value log GC: %w", err)
		}
	}
}

// Serve runs the maintenance loop (orphan sweep and value log GC) until ctx
// is canceled. It implements suture.Service.
func (b *BadgerBuffer) Serve(ctx context.Context) error {
	ticker := time.NewTicker(b.config.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed, err := b.Sweep(ctx)
			if err != nil {
				logging.Warn().Err(err).Msg("Badger buffer sweep failed")
			} else if removed > 0 {
				logging.Debug().Int("removed", removed).Msg("Swept expired buffer entries")
			}
			if err := b.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Badger buffer GC failed")
			}
		}
	}
}

// String implements fmt.Stringer for suture.
func (b *BadgerBuffer) String() string {
	return "badger-buffer-maintenance"
}

func (b *BadgerBuffer) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errors.New("badger buffer closed")
	}
	return nil
}

// update retries fn on transaction conflicts with a concurrent append or pop.
func (b *BadgerBuffer) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		err = b.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (b *BadgerBuffer) fail(op, key string, err error) error {
	metrics.RecordBufferError(b.Name(), op)
	if key != "" {
		return fmt.Errorf("%w: badger %s %s: %w", ErrUnavailable, op, key, err)
	}
	return fmt.Errorf("%w: badger %s: %w", ErrUnavailable, op, err)
}

func readKind(txn *badger.Txn, key string) (Kind, error) {
	item, err := txn.Get(markerKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return KindNone, nil
	}
	if err != nil {
		return KindNone, err
	}
	kind := KindOther
	err = item.Value(func(val []byte) error {
		if string(val) == typeList {
			kind = KindSequence
		}
		return nil
	})
	return kind, err
}

func deletePrefix(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func countPrefix(txn *badger.Txn, prefix []byte) (int, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Rewind(); it.Valid(); it.Next() {
		n++
	}
	return n, nil
}
