// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/killstream/internal/broker"
)

var _ Broker = (*broker.EmbeddedServer)(nil)

type fakeBroker struct {
	running   atomic.Bool
	shutdowns atomic.Int32
}

func (f *fakeBroker) IsRunning() bool { return f.running.Load() }

func (f *fakeBroker) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	f.running.Store(false)
	return nil
}

func TestBrokerService_ShutsDownOnCancel(t *testing.T) {
	b := &fakeBroker{}
	b.running.Store(true)
	svc := NewBrokerService(b, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	if got := b.shutdowns.Load(); got != 1 {
		t.Errorf("Shutdown calls = %d, want 1", got)
	}
}

func TestBrokerService_StoppedBroker(t *testing.T) {
	b := &fakeBroker{}
	svc := NewBrokerService(b, 0)

	err := svc.Serve(context.Background())
	if !errors.Is(err, ErrBrokerStopped) || !errors.Is(err, suture.ErrDoNotRestart) {
		t.Errorf("Serve() error = %v, want ErrBrokerStopped and ErrDoNotRestart", err)
	}
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("shutdownTimeout = %v, want 10s", svc.shutdownTimeout)
	}
}

func TestBrokerService_DetectsCrash(t *testing.T) {
	b := &fakeBroker{}
	b.running.Store(true)
	svc := NewBrokerService(b, time.Second)
	svc.checkInterval = 10 * time.Millisecond

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(context.Background()) }()

	time.Sleep(30 * time.Millisecond)
	b.running.Store(false)

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrBrokerStopped) {
			t.Errorf("Serve() error = %v, want ErrBrokerStopped", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not notice the stopped broker")
	}
}

func TestBrokerService_EmbeddedServer(t *testing.T) {
	srv, err := broker.StartEmbedded(broker.ServerConfig{Host: "127.0.0.1", Port: -1, StoreDir: t.TempDir()})
	if err != nil {
		t.Fatalf("StartEmbedded() error = %v", err)
	}
	svc := NewBrokerService(srv, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if !srv.IsRunning() {
		t.Fatal("server stopped early")
	}
	cancel()

	select {
	case <-errCh:
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return")
	}
	if srv.IsRunning() {
		t.Error("server still running after Serve returned")
	}
	if svc.String() != "nats-broker" {
		t.Errorf("String() = %q", svc.String())
	}
}
