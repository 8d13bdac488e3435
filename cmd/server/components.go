// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/killstream/internal/broker"
	"github.com/tomtom215/killstream/internal/buffer"
	"github.com/tomtom215/killstream/internal/config"
	"github.com/tomtom215/killstream/internal/logging"
	"github.com/tomtom215/killstream/internal/sink"
	"github.com/tomtom215/killstream/internal/supervisor"
	"github.com/tomtom215/killstream/internal/supervisor/services"
)

const defaultCloseTimeout = 15 * time.Second

// components holds the stores opened at startup. Close runs after the
// supervisor tree has stopped, so no service still uses them.
type components struct {
	buffer buffer.Buffer
	sink   sink.Sink
}

// initComponents opens the buffer and the sink and registers their
// background services with tree.
func initComponents(ctx context.Context, cfg *config.Config, tree *supervisor.Tree) (*components, error) {
	buf, err := openBuffer(ctx, cfg, tree)
	if err != nil {
		return nil, fmt.Errorf("open buffer: %w", err)
	}

	s, err := openSink(ctx, cfg, tree)
	if err != nil {
		_ = buf.Close()
		return nil, fmt.Errorf("open sink: %w", err)
	}

	return &components{buffer: buf, sink: s}, nil
}

// Close closes the sink, then the buffer.
func (c *components) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultCloseTimeout)
	defer cancel()

	if err := c.sink.Close(ctx); err != nil {
		logging.Error().Err(err).Str("sink", c.sink.Name()).Msg("Error closing sink")
	}
	if err := c.buffer.Close(); err != nil {
		logging.Error().Err(err).Str("buffer", c.buffer.Name()).Msg("Error closing buffer")
	}
}

func openBuffer(ctx context.Context, cfg *config.Config, tree *supervisor.Tree) (buffer.Buffer, error) {
	switch cfg.Buffer.Backend {
	case config.BufferRedis:
		return buffer.OpenRedis(ctx, buffer.RedisConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
			ScanCount:   cfg.Buffer.ScanCount,
		})

	case config.BufferBadger:
		b, err := buffer.OpenBadger(buffer.BadgerConfig{
			Path:       cfg.Badger.Path,
			InMemory:   cfg.Badger.InMemory,
			GCInterval: cfg.Badger.GCInterval,
		})
		if err != nil {
			return nil, err
		}
		if _, err := tree.Add(supervisor.LayerData, b); err != nil {
			_ = b.Close()
			return nil, err
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unknown buffer backend %q", cfg.Buffer.Backend)
	}
}

func openSink(ctx context.Context, cfg *config.Config, tree *supervisor.Tree) (sink.Sink, error) {
	var (
		s   sink.Sink
		err error
	)
	switch cfg.Sink.Backend {
	case config.SinkMongo:
		s, err = sink.OpenMongo(ctx, sink.MongoConfig{
			URI:            cfg.Mongo.URI,
			Database:       cfg.Mongo.Database,
			Collection:     cfg.Mongo.Collection,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
		})
	case config.SinkDuckDB:
		s, err = sink.OpenDuckDB(ctx, sink.DuckDBConfig{Path: cfg.DuckDB.Path, Table: cfg.DuckDB.Table})
	case config.SinkNATS:
		s, err = openNATSSink(ctx, cfg, tree)
	default:
		err = fmt.Errorf("unknown sink backend %q", cfg.Sink.Backend)
	}
	if err != nil {
		return nil, err
	}

	if !cfg.Sink.Breaker.Enabled {
		return s, nil
	}
	return sink.NewBreakerSink(s, sink.BreakerConfig{
		Name:             "sink-" + s.Name(),
		MaxRequests:      cfg.Sink.Breaker.MaxRequests,
		Interval:         cfg.Sink.Breaker.Interval,
		Timeout:          cfg.Sink.Breaker.Timeout,
		FailureThreshold: cfg.Sink.Breaker.FailureThreshold,
	}), nil
}

// openNATSSink starts the embedded broker when configured, then connects
// the JetStream sink to it.
func openNATSSink(ctx context.Context, cfg *config.Config, tree *supervisor.Tree) (sink.Sink, error) {
	url := cfg.NATS.URL

	var srv *broker.EmbeddedServer
	if cfg.NATS.Embedded {
		var err error
		srv, err = broker.StartEmbedded(broker.ServerConfig{
			Host:              cfg.NATS.Host,
			Port:              cfg.NATS.Port,
			StoreDir:          cfg.NATS.StoreDir,
			JetStreamMaxMem:   cfg.NATS.MaxMemory,
			JetStreamMaxStore: cfg.NATS.MaxStore,
		})
		if err != nil {
			return nil, err
		}
		url = srv.ClientURL()
	}

	stream := broker.DefaultStreamConfig()
	stream.Name = cfg.NATS.Stream
	stream.Subjects = []string{cfg.NATS.SubjectPrefix + ".>"}
	stream.MaxAge = cfg.NATS.MaxAge

	s, err := sink.OpenNATS(ctx, sink.NATSConfig{
		URL:           url,
		SubjectPrefix: cfg.NATS.SubjectPrefix,
		Stream:        stream,
	}, watermill.NewSlogLogger(logging.NewSlogLogger()))
	if err != nil {
		if srv != nil {
			_ = srv.Shutdown(ctx)
		}
		return nil, err
	}

	if srv != nil {
		if _, err := tree.Add(supervisor.LayerMessaging, services.NewBrokerService(srv, cfg.Supervisor.ShutdownTimeout)); err != nil {
			_ = s.Close(ctx)
			_ = srv.Shutdown(ctx)
			return nil, err
		}
	}
	return s, nil
}
