// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points CONFIG_PATH at a missing file and moves into an empty
// directory so no config.yaml on the host is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Buffer.KeyPrefix != "game:prod:kill:" {
		t.Errorf("Buffer.KeyPrefix = %q, want game:prod:kill:", cfg.Buffer.KeyPrefix)
	}
	if cfg.Buffer.DefaultTTL != 30*time.Second {
		t.Errorf("Buffer.DefaultTTL = %v, want 30s", cfg.Buffer.DefaultTTL)
	}
	if cfg.Flush.Interval != 10*time.Second {
		t.Errorf("Flush.Interval = %v, want 10s", cfg.Flush.Interval)
	}
	if cfg.Flush.BatchSize != 100 {
		t.Errorf("Flush.BatchSize = %d, want 100", cfg.Flush.BatchSize)
	}
	if cfg.Buffer.Backend != BufferRedis || cfg.Sink.Backend != SinkMongo {
		t.Errorf("backends = %s/%s, want redis/mongo", cfg.Buffer.Backend, cfg.Sink.Backend)
	}
	if cfg.Mongo.Collection != "kill_events" {
		t.Errorf("Mongo.Collection = %q, want kill_events", cfg.Mongo.Collection)
	}
	if cfg.NATS.MaxAge != 7*24*time.Hour {
		t.Errorf("NATS.MaxAge = %v, want 168h", cfg.NATS.MaxAge)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"BUFFER_KEY_PREFIX", "buffer.key_prefix"},
		{"BUFFER_DEFAULT_TTL", "buffer.default_ttl"},
		{"REDIS_ADDR", "redis.addr"},
		{"FLUSH_INTERVAL", "flush.interval"},
		{"FLUSH_BATCH_SIZE", "flush.batch_size"},
		{"SINK_BACKEND", "sink.backend"},
		{"SINK_BREAKER_FAILURE_THRESHOLD", "sink.breaker.failure_threshold"},
		{"MONGO_URI", "mongo.uri"},
		{"NATS_MAX_AGE", "nats.max_age"},
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},

		{"RANDOM_VAR", ""},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Sink.Breaker.FailureThreshold != 5 {
		t.Errorf("Sink.Breaker.FailureThreshold = %d, want 5", cfg.Sink.Breaker.FailureThreshold)
	}
}

func TestLoad_EnvVars(t *testing.T) {
	isolate(t)
	t.Setenv("BUFFER_KEY_PREFIX", "game:staging:kill:")
	t.Setenv("BUFFER_DEFAULT_TTL", "45s")
	t.Setenv("FLUSH_INTERVAL", "2s")
	t.Setenv("FLUSH_BATCH_SIZE", "3")
	t.Setenv("SINK_BACKEND", "duckdb")
	t.Setenv("BADGER_IN_MEMORY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Buffer.KeyPrefix != "game:staging:kill:" {
		t.Errorf("Buffer.KeyPrefix = %q", cfg.Buffer.KeyPrefix)
	}
	if cfg.Buffer.DefaultTTL != 45*time.Second {
		t.Errorf("Buffer.DefaultTTL = %v, want 45s", cfg.Buffer.DefaultTTL)
	}
	if cfg.Flush.Interval != 2*time.Second || cfg.Flush.BatchSize != 3 {
		t.Errorf("Flush = %+v", cfg.Flush)
	}
	if cfg.Sink.Backend != SinkDuckDB {
		t.Errorf("Sink.Backend = %q, want duckdb", cfg.Sink.Backend)
	}
	if !cfg.Badger.InMemory {
		t.Error("Badger.InMemory should be true")
	}
}

func TestLoad_ConfigFileAndEnvOverride(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "killstream.yaml")
	yaml := `
buffer:
  backend: badger
  default_ttl: 1m
badger:
  in_memory: true
flush:
  batch_size: 250
sink:
  backend: nats
nats:
  embedded: true
  subject_prefix: game.kills
server:
  port: 9090
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9191")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Buffer.Backend != BufferBadger || cfg.Buffer.DefaultTTL != time.Minute {
		t.Errorf("Buffer = %+v", cfg.Buffer)
	}
	if cfg.Flush.BatchSize != 250 {
		t.Errorf("Flush.BatchSize = %d, want 250", cfg.Flush.BatchSize)
	}
	if cfg.NATS.SubjectPrefix != "game.kills" || cfg.NATS.Stream != "KILL_EVENTS" {
		t.Errorf("NATS = %+v", cfg.NATS)
	}
	// Environment wins over the file.
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", cfg.Server.Port)
	}
	// Untouched defaults survive the file layer.
	if cfg.Flush.Interval != 10*time.Second {
		t.Errorf("Flush.Interval = %v, want 10s", cfg.Flush.Interval)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	isolate(t)
	t.Setenv("FLUSH_BATCH_SIZE", "0")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "FLUSH_BATCH_SIZE") {
		t.Errorf("Load() error = %v, want FLUSH_BATCH_SIZE failure", err)
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := isolate(t)

	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := findConfigFile(); got != "config.yaml" {
		t.Errorf("findConfigFile() = %q, want config.yaml", got)
	}

	custom := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(custom, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, custom)
	if got := findConfigFile(); got != custom {
		t.Errorf("findConfigFile() = %q, want %q", got, custom)
	}
}
