// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

//go:build integration

package testinfra

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DefaultMongoImage is the durable store used in integration tests.
const DefaultMongoImage = "mongo:7"

// MongoContainer is a running standalone mongod.
type MongoContainer struct {
	testcontainers.Container
	// URI is a mongodb:// connection string.
	URI string
}

// NewMongoContainer starts mongod and waits until it is listening.
func NewMongoContainer(ctx context.Context, opts ...Option) (*MongoContainer, error) {
	o := applyOptions(DefaultMongoImage, opts)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        o.image,
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("27017/tcp"),
				wait.ForLog("Waiting for connections"),
			).WithStartupTimeout(o.startTimeout),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create mongo container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "27017/tcp")
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &MongoContainer{Container: container, URI: fmt.Sprintf("mongodb://%s:%s", host, port.Port())}, nil
}
