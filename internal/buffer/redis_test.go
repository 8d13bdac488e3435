// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package buffer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedisBuffer(t *testing.T) (*RedisBuffer, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewRedisBuffer(client, 0)
	t.Cleanup(func() { _ = b.Close() })
	return b, mr
}

func TestRedisBuffer_Contract(t *testing.T) {
	runBufferContract(t, func(t *testing.T) Buffer {
		b, _ := newMiniRedisBuffer(t)
		return b
	})
}

func TestRedisBuffer_AppendSetsTTL(t *testing.T) {
	b, mr := newMiniRedisBuffer(t)
	ctx := context.Background()
	key := testPrefix + "m1:a1"

	require.NoError(t, b.Append(ctx, key, []byte("a"), 30*time.Second))
	assert.Equal(t, 30*time.Second, mr.TTL(key))

	// Every append refreshes the expiry.
	mr.FastForward(20 * time.Second)
	require.NoError(t, b.Append(ctx, key, []byte("b"), 30*time.Second))
	assert.Equal(t, 30*time.Second, mr.TTL(key))

	mr.FastForward(31 * time.Second)
	assert.False(t, mr.Exists(key), "key should expire after its TTL")
}

func TestRedisBuffer_LeftPushRightPop(t *testing.T) {
	b, mr := newMiniRedisBuffer(t)
	ctx := context.Background()
	key := testPrefix + "m1:a1"

	require.NoError(t, b.Append(ctx, key, []byte("old"), time.Minute))
	require.NoError(t, b.Append(ctx, key, []byte("new"), time.Minute))

	list, err := mr.List(key)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, list)
}

func TestRedisBuffer_ExpireRefreshes(t *testing.T) {
	b, mr := newMiniRedisBuffer(t)
	ctx := context.Background()
	key := testPrefix + "m1:a1"

	require.NoError(t, b.Append(ctx, key, []byte("a"), 10*time.Second))
	require.NoError(t, b.Expire(ctx, key, time.Hour))
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestRedisBuffer_NotASequence(t *testing.T) {
	b, mr := newMiniRedisBuffer(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(testPrefix+"m1:a1", "i am a string"))
	mr.HSet(testPrefix+"m1:a2", "field", "value")

	for _, key := range []string{testPrefix + "m1:a1", testPrefix + "m1:a2"} {
		kind, err := b.Kind(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, KindOther, kind, key)
		assert.True(t, kind.NotASequence())
	}
}

func TestRedisBuffer_KeysWalksWholeCursor(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewRedisBuffer(client, 2) // small COUNT forces several SCAN round trips
	defer b.Close()
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		require.NoError(t, b.Append(ctx, fmt.Sprintf("%sm%d:a1", testPrefix, i), []byte("x"), time.Minute))
	}

	keys, err := b.Keys(ctx, testPrefix)
	require.NoError(t, err)
	assert.Len(t, keys, 25)
}

func TestRedisBuffer_UnreachableServer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	b := NewRedisBuffer(client, 0)
	defer b.Close()
	mr.Close()

	ctx := context.Background()
	err := b.Append(ctx, testPrefix+"m1:a1", []byte("x"), time.Minute)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = b.Keys(ctx, testPrefix)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, _, err = b.PopOldest(ctx, testPrefix+"m1:a1")
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.ErrorIs(t, b.Ping(ctx), ErrUnavailable)
}

func TestOpenRedis_RequiresAddress(t *testing.T) {
	_, err := OpenRedis(context.Background(), RedisConfig{})
	assert.Error(t, err)
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := OpenRedis(context.Background(), RedisConfig{Addr: mr.Addr(), DialTimeout: time.Second})
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "redis", b.Name())
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, "game:prod:kill:", escapeGlob("game:prod:kill:"))
	assert.Equal(t, `a\*b\?c\[d\]`, escapeGlob("a*b?c[d]"))
}
