// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

// Package testinfra starts throwaway Redis and MongoDB containers for
// integration tests. Everything here is behind the integration build tag:
//
//	go test -tags integration ./...
//
// Tests skip when Docker is not reachable.
package testinfra
