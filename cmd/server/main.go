// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/killstream/internal/api"
	"github.com/tomtom215/killstream/internal/config"
	"github.com/tomtom215/killstream/internal/flush"
	"github.com/tomtom215/killstream/internal/ingest"
	"github.com/tomtom215/killstream/internal/logging"
	"github.com/tomtom215/killstream/internal/supervisor"
	"github.com/tomtom215/killstream/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().
		Str("buffer", cfg.Buffer.Backend).
		Str("sink", cfg.Sink.Backend).
		Str("key_prefix", cfg.Buffer.KeyPrefix).
		Bool("flush_enabled", cfg.Flush.Enabled).
		Msg("Starting killstream")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("killstream failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})

	comps, err := initComponents(ctx, cfg, tree)
	if err != nil {
		return err
	}
	defer comps.Close()

	ingester, err := ingest.NewService(comps.buffer, ingest.Config{
		KeyPrefix:  cfg.Buffer.KeyPrefix,
		DefaultTTL: cfg.Buffer.DefaultTTL,
	})
	if err != nil {
		return err
	}

	flusher, err := flush.New(comps.buffer, comps.sink, flush.Config{
		KeyPrefix: cfg.Buffer.KeyPrefix,
		BatchSize: cfg.Flush.BatchSize,
		Interval:  cfg.Flush.Interval,
		OpTimeout: cfg.Flush.OpTimeout,
	})
	if err != nil {
		return err
	}

	// A nil runner makes the manual trigger answer 503.
	var runner api.CycleRunner
	if cfg.Flush.Enabled {
		runner = flusher
		if _, err := tree.Add(supervisor.LayerData, flusher); err != nil {
			return err
		}
		logging.Info().
			Dur("interval", flusher.Config().Interval).
			Int("batch_size", flusher.Config().BatchSize).
			Msg("Flush scheduler added to supervisor tree")
	} else {
		logging.Warn().Msg("Flush scheduler disabled (FLUSH_ENABLED=false); buffered events will expire")
	}

	handler := api.NewHandler(ingester, runner, comps.buffer)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	if _, err := tree.Add(supervisor.LayerAPI, services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout)); err != nil {
		return err
	}

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}
