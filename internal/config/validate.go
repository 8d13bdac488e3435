// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/killstream/internal/logging"
)

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateBuffer,
		c.validateFlush,
		c.validateSink,
		c.validateServer,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateBuffer() error {
	if c.Buffer.KeyPrefix == "" {
		return fmt.Errorf("BUFFER_KEY_PREFIX must not be empty")
	}
	if !strings.HasSuffix(c.Buffer.KeyPrefix, ":") {
		return fmt.Errorf("BUFFER_KEY_PREFIX must end with ':', got %q", c.Buffer.KeyPrefix)
	}
	if c.Buffer.DefaultTTL <= 0 {
		return fmt.Errorf("BUFFER_DEFAULT_TTL must be positive, got %v", c.Buffer.DefaultTTL)
	}

	switch c.Buffer.Backend {
	case BufferRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when BUFFER_BACKEND=redis")
		}
	case BufferBadger:
		if !c.Badger.InMemory && c.Badger.Path == "" {
			return fmt.Errorf("BADGER_PATH is required unless BADGER_IN_MEMORY=true")
		}
	default:
		return fmt.Errorf("BUFFER_BACKEND must be %q or %q, got %q", BufferRedis, BufferBadger, c.Buffer.Backend)
	}
	return nil
}

func (c *Config) validateFlush() error {
	if c.Flush.BatchSize <= 0 {
		return fmt.Errorf("FLUSH_BATCH_SIZE must be positive, got %d", c.Flush.BatchSize)
	}
	if c.Flush.Interval <= 0 {
		return fmt.Errorf("FLUSH_INTERVAL must be positive, got %v", c.Flush.Interval)
	}
	if c.Flush.OpTimeout <= 0 {
		return fmt.Errorf("FLUSH_OP_TIMEOUT must be positive, got %v", c.Flush.OpTimeout)
	}
	return nil
}

func (c *Config) validateSink() error {
	switch c.Sink.Backend {
	case SinkMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" || c.Mongo.Collection == "" {
			return fmt.Errorf("MONGO_URI, MONGO_DATABASE and MONGO_COLLECTION are required when SINK_BACKEND=mongo")
		}
	case SinkDuckDB:
		if c.DuckDB.Path == "" || c.DuckDB.Table == "" {
			return fmt.Errorf("DUCKDB_PATH and DUCKDB_TABLE are required when SINK_BACKEND=duckdb")
		}
	case SinkNATS:
		if !c.NATS.Embedded && c.NATS.URL == "" {
			return fmt.Errorf("NATS_URL is required unless NATS_EMBEDDED=true")
		}
		if c.NATS.Stream == "" || c.NATS.SubjectPrefix == "" {
			return fmt.Errorf("NATS_STREAM and NATS_SUBJECT_PREFIX are required when SINK_BACKEND=nats")
		}
		if c.NATS.Embedded && (c.NATS.Port < -1 || c.NATS.Port > 65535) {
			return fmt.Errorf("NATS_PORT must be between -1 and 65535, got %d", c.NATS.Port)
		}
	default:
		return fmt.Errorf("SINK_BACKEND must be one of %q, %q, %q, got %q", SinkMongo, SinkDuckDB, SinkNATS, c.Sink.Backend)
	}

	if c.Sink.Breaker.Enabled && c.Sink.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("SINK_BREAKER_FAILURE_THRESHOLD must be positive when the breaker is enabled")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
