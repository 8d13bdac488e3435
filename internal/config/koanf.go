// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/killstream/config.yaml",
	"/etc/killstream/config.yml",
}

// ConfigPathEnvVar names the variable holding an explicit config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Buffer: BufferConfig{
			Backend:    BufferRedis,
			KeyPrefix:  "game:prod:kill:",
			DefaultTTL: 30 * time.Second,
			ScanCount:  10000,
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			DB:          0,
			DialTimeout: 5 * time.Second,
		},
		Badger: BadgerConfig{
			Path:       "/data/killstream/buffer",
			InMemory:   false,
			GCInterval: 5 * time.Minute,
		},
		Flush: FlushConfig{
			Enabled:   true,
			Interval:  10 * time.Second,
			BatchSize: 100,
			OpTimeout: 5 * time.Second,
		},
		Sink: SinkConfig{
			Backend: SinkMongo,
			Breaker: BreakerConfig{
				Enabled:          true,
				MaxRequests:      3,
				Interval:         30 * time.Second,
				Timeout:          10 * time.Second,
				FailureThreshold: 5,
			},
		},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "game",
			Collection:     "kill_events",
			ConnectTimeout: 10 * time.Second,
		},
		DuckDB: DuckDBConfig{
			Path:  "/data/killstream/events.duckdb",
			Table: "kill_events",
		},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			Embedded:      true,
			StoreDir:      "/data/killstream/jetstream",
			Host:          "127.0.0.1",
			Port:          4222,
			MaxMemory:     256 << 20, // 256MB
			MaxStore:      10 << 30,  // 10GB
			Stream:        "KILL_EVENTS",
			SubjectPrefix: "kill.events",
			MaxAge:        7 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var envMappings = map[string]string{
	"buffer_backend":     "buffer.backend",
	"buffer_key_prefix":  "buffer.key_prefix",
	"buffer_default_ttl": "buffer.default_ttl",
	"buffer_scan_count":  "buffer.scan_count",

	"redis_addr":         "redis.addr",
	"redis_password":     "redis.password",
	"redis_db":           "redis.db",
	"redis_dial_timeout": "redis.dial_timeout",

	"badger_path":        "badger.path",
	"badger_in_memory":   "badger.in_memory",
	"badger_gc_interval": "badger.gc_interval",

	"flush_enabled":    "flush.enabled",
	"flush_interval":   "flush.interval",
	"flush_batch_size": "flush.batch_size",
	"flush_op_timeout": "flush.op_timeout",

	"sink_backend":                   "sink.backend",
	"sink_breaker_enabled":           "sink.breaker.enabled",
	"sink_breaker_max_requests":      "sink.breaker.max_requests",
	"sink_breaker_interval":          "sink.breaker.interval",
	"sink_breaker_timeout":           "sink.breaker.timeout",
	"sink_breaker_failure_threshold": "sink.breaker.failure_threshold",

	"mongo_uri":             "mongo.uri",
	"mongo_database":        "mongo.database",
	"mongo_collection":      "mongo.collection",
	"mongo_connect_timeout": "mongo.connect_timeout",

	"duckdb_path":  "duckdb.path",
	"duckdb_table": "duckdb.table",

	"nats_url":            "nats.url",
	"nats_embedded":       "nats.embedded",
	"nats_store_dir":      "nats.store_dir",
	"nats_host":           "nats.host",
	"nats_port":           "nats.port",
	"nats_max_memory":     "nats.max_memory",
	"nats_max_store":      "nats.max_store",
	"nats_stream":         "nats.stream",
	"nats_subject_prefix": "nats.subject_prefix",
	"nats_max_age":        "nats.max_age",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps an environment variable name to its config key.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
