// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"net"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DefaultRedisImage is the buffer store used in integration tests.
const DefaultRedisImage = "redis:7-alpine"

// RedisContainer is a running Redis server.
type RedisContainer struct {
	testcontainers.Container
	// Addr is host:port for go-redis.
	Addr string
}

// NewRedisContainer starts Redis and waits for it to accept connections.
func NewRedisContainer(ctx context.Context, opts ...Option) (*RedisContainer, error) {
	o := applyOptions(DefaultRedisImage, opts)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        o.image,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("6379/tcp"),
				wait.ForLog("Ready to accept connections"),
			).WithStartupTimeout(o.startTimeout),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &RedisContainer{Container: container, Addr: net.JoinHostPort(host, port.Port())}, nil
}
