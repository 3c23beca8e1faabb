// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

/*
Package api serves the LocalDB HTTP API on a chi router.

# Endpoints

	GET    /health                        liveness
	GET    /health/ready                  store open and event log accepting writes
	GET    /metrics                       Prometheus exposition
	GET    /api/v1/events                 search stored events
	POST   /api/v1/events                 queue one event for the writer
	GET    /api/v1/events/export          download every stored event (jsonl, csv, parquet)
	POST   /api/v1/messages               enqueue an SMS or e-mail for delivery
	GET    /api/v1/queues                 size of every open queue
	DELETE /api/v1/queues/{category}      clear one queue
	GET    /api/v1/stats                  event log, outbox and store statistics

Search query parameters: min_level, max_count, actor, text, category,
exclude and max_query_time. category and exclude may repeat or hold a
comma separated list. max_query_time is capped by the server setting.

# Responses

JSON endpoints return an envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"...","query_time_ms":3}}

Failures set status to "error" and fill error with a machine readable code
such as VALIDATION_ERROR, NOT_FOUND or STORE_ERROR.

# Middleware

Every route runs RequestID, AccessLog, chi Recoverer and CORS. /api/v1
adds per-IP rate limiting (httprate) and Prometheus instrumentation.
*/
package api
