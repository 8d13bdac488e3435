// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"
)

// ErrBrokerStopped is returned when the embedded broker exits on its own.
var ErrBrokerStopped = errors.New("embedded broker stopped")

// Broker is an in-process message server started before the tree runs.
type Broker interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// BrokerService ties the lifetime of an embedded broker to the tree.
// The broker is started by main so the sink can connect before the
// flush scheduler runs; this service only watches it and stops it.
type BrokerService struct {
	broker          Broker
	checkInterval   time.Duration
	shutdownTimeout time.Duration
}

// NewBrokerService wraps broker.
func NewBrokerService(broker Broker, shutdownTimeout time.Duration) *BrokerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &BrokerService{
		broker:          broker,
		checkInterval:   5 * time.Second,
		shutdownTimeout: shutdownTimeout,
	}
}

// Serve blocks until ctx is canceled and then shuts the broker down. If
// the broker dies first, Serve fails without restart: a stopped embedded
// server cannot be started again in place.
func (s *BrokerService) Serve(ctx context.Context) error {
	if !s.broker.IsRunning() {
		return fmt.Errorf("%w: %w", ErrBrokerStopped, suture.ErrDoNotRestart)
	}

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
			defer cancel()
			if err := s.broker.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("broker shutdown: %w", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if !s.broker.IsRunning() {
				return fmt.Errorf("%w: %w", ErrBrokerStopped, suture.ErrDoNotRestart)
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *BrokerService) String() string {
	return "nats-broker"
}
