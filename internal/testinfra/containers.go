// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

//go:build integration

package testinfra

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

// SkipIfNoDocker skips t when the docker daemon does not answer.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping container test in short mode")
	}
	if !IsDockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}
}

// IsDockerAvailable runs docker info with a short timeout.
func IsDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// CleanupContainer terminates container when t finishes.
func CleanupContainer(t *testing.T, container testcontainers.Container) {
	t.Helper()
	if container == nil {
		return
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})
}

// containerOptions is shared by the container constructors.
type containerOptions struct {
	image        string
	startTimeout time.Duration
}

// Option customizes a container.
type Option func(*containerOptions)

// WithImage overrides the default image.
func WithImage(image string) Option {
	return func(o *containerOptions) { o.image = image }
}

// WithStartTimeout bounds how long to wait for readiness.
func WithStartTimeout(d time.Duration) Option {
	return func(o *containerOptions) { o.startTimeout = d }
}

func applyOptions(image string, opts []Option) containerOptions {
	o := containerOptions{image: image, startTimeout: 60 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
