// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// StreamManager is the subset of jetstream.JetStream used by EnsureStream.
type StreamManager interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// StreamConfig describes the hit event stream.
type StreamConfig struct {
	Name     string
	Subjects []string
	MaxAge   time.Duration
	MaxBytes int64
	Replicas int
}

// DefaultStreamConfig returns the stream used by the NATS sink.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:     "KILL_EVENTS",
		Subjects: []string{"kill.events.>"},
		MaxAge:   7 * 24 * time.Hour,
		MaxBytes: -1,
		Replicas: 1,
	}
}

// EnsureStream creates the stream, or updates it when it already exists.
// It is idempotent. Messages are never deduplicated: identical records
// published twice are stored twice.
func EnsureStream(ctx context.Context, js StreamManager, cfg StreamConfig) (jetstream.Stream, error) {
	if js == nil {
		return nil, fmt.Errorf("JetStream context required")
	}
	if cfg.Name == "" || len(cfg.Subjects) == 0 {
		return nil, fmt.Errorf("stream name and subjects required")
	}
	replicas := cfg.Replicas
	if replicas <= 0 {
		replicas = 1
	}

	streamCfg := jetstream.StreamConfig{
		Name:      cfg.Name,
		Subjects:  cfg.Subjects,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    cfg.MaxAge,
		MaxBytes:  cfg.MaxBytes,
		MaxMsgs:   -1,
		Replicas:  replicas,
		Storage:   jetstream.FileStorage,
		Discard:   jetstream.DiscardOld,
	}

	_, err := js.Stream(ctx, cfg.Name)
	switch {
	case err == nil:
		stream, err := js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", cfg.Name, err)
		}
		return stream, nil
	case errors.Is(err, jetstream.ErrStreamNotFound):
		stream, err := js.CreateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		return stream, nil
	default:
		return nil, fmt.Errorf("check stream %s: %w", cfg.Name, err)
	}
}
