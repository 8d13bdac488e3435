// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package config

import "time"

// Buffer backends.
const (
	BufferRedis  = "redis"
	BufferBadger = "badger"
)

// Sink backends.
const (
	SinkMongo  = "mongo"
	SinkDuckDB = "duckdb"
	SinkNATS   = "nats"
)

// Config is the full service configuration.
type Config struct {
	Buffer     BufferConfig     `koanf:"buffer"`
	Redis      RedisConfig      `koanf:"redis"`
	Badger     BadgerConfig     `koanf:"badger"`
	Flush      FlushConfig      `koanf:"flush"`
	Sink       SinkConfig       `koanf:"sink"`
	Mongo      MongoConfig      `koanf:"mongo"`
	DuckDB     DuckDBConfig     `koanf:"duckdb"`
	NATS       NATSConfig       `koanf:"nats"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// BufferConfig selects and tunes the key-scoped buffer.
type BufferConfig struct {
	// Backend is redis or badger.
	Backend string `koanf:"backend"`

	// KeyPrefix is prepended to matchId:attackerId. Must end in ":".
	KeyPrefix string `koanf:"key_prefix"`

	// DefaultTTL applies when a producer sends no ttlSeconds.
	DefaultTTL time.Duration `koanf:"default_ttl"`

	// ScanCount is the COUNT hint for Redis SCAN.
	ScanCount int64 `koanf:"scan_count"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr        string        `koanf:"addr"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
}

// BadgerConfig holds embedded buffer settings.
type BadgerConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// FlushConfig tunes the drain and flush orchestrator.
type FlushConfig struct {
	// Enabled runs the periodic scheduler. The manual trigger endpoint
	// returns 503 when disabled.
	Enabled   bool          `koanf:"enabled"`
	Interval  time.Duration `koanf:"interval"`
	BatchSize int           `koanf:"batch_size"`

	// OpTimeout bounds each buffer or sink call within a cycle.
	OpTimeout time.Duration `koanf:"op_timeout"`
}

// SinkConfig selects the durable sink.
type SinkConfig struct {
	Backend string        `koanf:"backend"`
	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the circuit breaker around the sink.
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// MongoConfig holds MongoDB sink settings.
type MongoConfig struct {
	URI            string        `koanf:"uri"`
	Database       string        `koanf:"database"`
	Collection     string        `koanf:"collection"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// DuckDBConfig holds DuckDB sink settings.
type DuckDBConfig struct {
	Path  string `koanf:"path"`
	Table string `koanf:"table"`
}

// NATSConfig holds JetStream sink settings.
type NATSConfig struct {
	URL string `koanf:"url"`

	// Embedded starts an in-process server; URL is then ignored.
	Embedded  bool   `koanf:"embedded"`
	StoreDir  string `koanf:"store_dir"`
	Host      string `koanf:"host"`
	Port      int    `koanf:"port"`
	MaxMemory int64  `koanf:"max_memory"`
	MaxStore  int64  `koanf:"max_store"`

	Stream        string        `koanf:"stream"`
	SubjectPrefix string        `koanf:"subject_prefix"`
	MaxAge        time.Duration `koanf:"max_age"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	Caller bool `koanf:"caller"`
}

// SupervisorConfig tunes the suture tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}
