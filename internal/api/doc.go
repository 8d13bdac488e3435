// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

/*
Package api is the HTTP surface of the pipeline.

Endpoints:

	POST /api/v1/ingame/killSave    buffer one hit event (201)
	POST /api/v1/ingame/flush       run one flush cycle now (200, 409 while one runs)
	GET  /api/v1/ingame/flush/last  result of the most recent cycle (404 before the first)
	GET  /api/v1/health/live        liveness
	GET  /api/v1/health/ready       readiness, pings the buffer
	GET  /metrics                   Prometheus

Every JSON response uses the same envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "VALIDATION_ERROR", "message": "...", "details": {...}}}

A 201 from killSave means the event is buffered, not that it is durable.
*/
package api
