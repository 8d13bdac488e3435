// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Layer names a child supervisor of the tree.
type Layer int

const (
	// LayerData holds the flush scheduler and buffer maintenance.
	LayerData Layer = iota
	// LayerMessaging holds the embedded broker.
	LayerMessaging
	// LayerAPI holds the HTTP server.
	LayerAPI
)

// String returns the supervisor name of the layer.
func (l Layer) String() string {
	switch l {
	case LayerData:
		return "data-layer"
	case LayerMessaging:
		return "messaging-layer"
	case LayerAPI:
		return "api-layer"
	default:
		return fmt.Sprintf("layer(%d)", int(l))
	}
}

// TreeConfig tunes restart behavior for every supervisor in the tree.
type TreeConfig struct {
	// FailureThreshold is the decayed failure count above which a
	// supervisor backs off before restarting again.
	FailureThreshold float64

	// FailureDecay is the half-life, in seconds, of the failure count.
	FailureDecay float64

	FailureBackoff time.Duration

	// ShutdownTimeout is how long each service gets to return after its
	// context is canceled.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns the production restart settings.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	def := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = def.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = def.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = def.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) spec() suture.Spec {
	return suture.Spec{
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// Tree is the process supervisor.
type Tree struct {
	root   *suture.Supervisor
	layers map[Layer]*suture.Supervisor
	config TreeConfig
}

// NewTree builds the root supervisor and its three layers. Zero fields of
// config take their DefaultTreeConfig value.
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	config = config.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	rootSpec := config.spec()
	rootSpec.EventHook = (&sutureslog.Handler{Logger: logger}).MustHook()

	root := suture.New("killstream", rootSpec)
	layers := make(map[Layer]*suture.Supervisor, 3)
	for _, l := range []Layer{LayerData, LayerMessaging, LayerAPI} {
		sup := suture.New(l.String(), config.spec())
		root.Add(sup)
		layers[l] = sup
	}

	return &Tree{root: root, layers: layers, config: config}
}

// Config returns the effective configuration.
func (t *Tree) Config() TreeConfig {
	return t.config
}

// Add registers svc under layer. Services added after Serve starts are
// started immediately.
func (t *Tree) Add(layer Layer, svc suture.Service) (suture.ServiceToken, error) {
	sup, ok := t.layers[layer]
	if !ok {
		return suture.ServiceToken{}, fmt.Errorf("unknown supervisor layer %v", layer)
	}
	return sup.Add(svc), nil
}

// Remove stops the service identified by token in layer.
func (t *Tree) Remove(layer Layer, token suture.ServiceToken) error {
	sup, ok := t.layers[layer]
	if !ok {
		return fmt.Errorf("unknown supervisor layer %v", layer)
	}
	return sup.Remove(token)
}

// Serve runs the tree until ctx is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The channel receives the
// result of Serve.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that ignored shutdown.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
