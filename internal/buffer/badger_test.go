// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package buffer

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryBadger(t *testing.T) *BadgerBuffer {
	t.Helper()
	b, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBadgerBuffer_Contract(t *testing.T) {
	runBufferContract(t, func(t *testing.T) Buffer {
		return newMemoryBadger(t)
	})
}

func TestBadgerBuffer_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	key := testPrefix + "m1:a1"

	b, err := OpenBadger(BadgerConfig{Path: dir})
	require.NoError(t, err)
	require.NoError(t, b.Append(ctx, key, []byte("persisted"), time.Hour))
	require.NoError(t, b.Close())

	b, err = OpenBadger(BadgerConfig{Path: dir})
	require.NoError(t, err)
	defer b.Close()

	entry, ok, err := b.PopOldest(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", string(entry))
	assert.NoError(t, b.RunGC())
}

func TestOpenBadger_RequiresPath(t *testing.T) {
	_, err := OpenBadger(BadgerConfig{})
	assert.Error(t, err)
}

func TestBadgerBuffer_NotASequence(t *testing.T) {
	b := newMemoryBadger(t)
	ctx := context.Background()
	key := testPrefix + "m1:a1"

	require.NoError(t, b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(markerKey(key), []byte("hash"))
	}))

	kind, err := b.Kind(ctx, key)
	require.NoError(t, err)
	assert.True(t, kind.NotASequence())

	// Appending to a foreign key fails instead of corrupting it.
	err = b.Append(ctx, key, []byte("x"), time.Minute)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, ok, err := b.PopOldest(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadgerBuffer_ExpiryDropsSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for badger's one-second TTL resolution")
	}
	b := newMemoryBadger(t)
	ctx := context.Background()
	key := testPrefix + "m1:a1"

	require.NoError(t, b.Append(ctx, key, []byte("stale"), time.Second))
	time.Sleep(2100 * time.Millisecond)

	keys, err := b.Keys(ctx, testPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, ok, err := b.PopOldest(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "expired sequence must not be drained")

	removed, err := b.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// A fresh append starts from an empty sequence.
	require.NoError(t, b.Append(ctx, key, []byte("fresh"), time.Minute))
	entry, ok, err := b.PopOldest(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fresh", string(entry))
}

func TestBadgerBuffer_ExpireMissingKeyIsNoop(t *testing.T) {
	b := newMemoryBadger(t)
	assert.NoError(t, b.Expire(context.Background(), testPrefix+"none:none", time.Minute))

	kind, err := b.Kind(context.Background(), testPrefix+"none:none")
	require.NoError(t, err)
	assert.Equal(t, KindNone, kind)
}

func TestBadgerBuffer_ClosedFails(t *testing.T) {
	b, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "second Close is a no-op")

	assert.ErrorIs(t, b.Ping(context.Background()), ErrUnavailable)
}

func TestBadgerBuffer_ServeStopsOnCancel(t *testing.T) {
	b, err := OpenBadger(BadgerConfig{InMemory: true, GCInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = b.Serve(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "badger-buffer-maintenance", b.String())
}
