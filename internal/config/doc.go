// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

/*
Package config loads the service configuration with koanf.

Sources are layered, later ones winning:

 1. built-in defaults (defaultConfig)
 2. an optional YAML file: $CONFIG_PATH, else the first of
    DefaultConfigPaths that exists
 3. environment variables listed in envMappings

Only mapped environment variables are read, so unrelated variables in the
process environment never leak into the configuration.

Example config.yaml:

	buffer:
	  backend: redis
	  key_prefix: "game:prod:kill:"
	  default_ttl: 30s
	redis:
	  addr: redis:6379
	flush:
	  interval: 10s
	  batch_size: 100
	sink:
	  backend: mongo
	mongo:
	  uri: mongodb://mongo:27017
	  database: game
	  collection: kill_events

Durations accept Go duration strings ("30s", "5m", "168h").
*/
package config
