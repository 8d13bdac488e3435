// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package buffer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/killstream/internal/logging"
	"github.com/tomtom215/killstream/internal/metrics"
)

// DefaultScanCount is the SCAN COUNT hint used when none is configured.
const DefaultScanCount = 10000

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	ScanCount   int64
}

// RedisBuffer stores each sequence as a Redis list.
type RedisBuffer struct {
	client    redis.UniversalClient
	scanCount int64
}

// NewRedisBuffer wraps an existing client. scanCount <= 0 selects DefaultScanCount.
func NewRedisBuffer(client redis.UniversalClient, scanCount int64) *RedisBuffer {
	if scanCount <= 0 {
		scanCount = DefaultScanCount
	}
	return &RedisBuffer{client: client, scanCount: scanCount}
}

// OpenRedis connects to Redis and verifies the connection with PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisBuffer, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	b := NewRedisBuffer(client, cfg.ScanCount)
	if err := b.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	logging.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("Redis buffer connected")
	return b, nil
}

// Append runs LPUSH and EXPIRE in one MULTI/EXEC transaction.
func (b *RedisBuffer) Append(ctx context.Context, key string, entry []byte, ttl time.Duration) error {
	_, err := b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, entry)
		p.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return b.fail("append", key, err)
	}
	return nil
}

// Expire refreshes the TTL of key.
func (b *RedisBuffer) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := b.client.Expire(ctx, key, ttl).Err(); err != nil {
		return b.fail("expire", key, err)
	}
	return nil
}

// Keys walks the SCAN cursor to completion with MATCH <prefix>* and returns
// the distinct keys in the order SCAN produced them.
func (b *RedisBuffer) Keys(ctx context.Context, prefix string) ([]string, error) {
	seen := make(map[string]struct{})
	var keys []string

	iter := b.client.Scan(ctx, 0, escapeGlob(prefix)+"*", b.scanCount).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, b.fail("keys", prefix, err)
	}
	return keys, nil
}

// Kind maps the Redis TYPE reply onto Kind.
func (b *RedisBuffer) Kind(ctx context.Context, key string) (Kind, error) {
	t, err := b.client.Type(ctx, key).Result()
	if err != nil {
		return KindNone, b.fail("kind", key, err)
	}
	switch strings.ToLower(t) {
	case "list":
		return KindSequence, nil
	case "none":
		return KindNone, nil
	default:
		return KindOther, nil
	}
}

// PopOldest runs RPOP; the producer side pushes on the left.
func (b *RedisBuffer) PopOldest(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := b.client.RPop(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, b.fail("pop", key, err)
	}
	return entry, true, nil
}

// Ping sends PING.
func (b *RedisBuffer) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return b.fail("ping", "", err)
	}
	return nil
}

// Name implements Buffer.
func (b *RedisBuffer) Name() string {
	return "redis"
}

// Close closes the client.
func (b *RedisBuffer) Close() error {
	return b.client.Close()
}

func (b *RedisBuffer) fail(op, key string, err error) error {
	metrics.RecordBufferError(b.Name(), op)
	if key != "" {
		return fmt.Errorf("%w: redis %s %s: %w", ErrUnavailable, op, key, err)
	}
	return fmt.Errorf("%w: redis %s: %w", ErrUnavailable, op, err)
}

// escapeGlob escapes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
