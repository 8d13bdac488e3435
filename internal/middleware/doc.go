// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

/*
Package middleware provides the HTTP middleware used by the API router.

  - RequestID: reuses X-Request-ID from upstream or generates a UUID, echoes
    it in the response and attaches it to the logging context
  - PrometheusMetrics: request counts, latency and in-flight gauge, labelled
    by chi route pattern so path parameters do not explode cardinality
  - AccessLog: one debug line per request with status and duration

Middleware here uses the func(http.Handler) http.Handler shape so it can be
passed to chi's r.Use directly:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)
*/
package middleware
