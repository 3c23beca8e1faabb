// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package eventlog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop and trim reasons used as metric labels.
const (
	dropOverflow = "overflow"
	dropClosed   = "closed"
	dropEncode   = "encode"
	dropShutdown = "shutdown"

	trimCount       = "count"
	trimAge         = "age"
	trimUndecodable = "undecodable"
)

var (
	eventsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localdb_eventlog_events_written_total",
		Help: "Events written to the persistent queue",
	})

	eventsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "localdb_eventlog_events_dropped_total",
		Help: "Events discarded before reaching the persistent queue",
	}, []string{"reason"})

	eventsTrimmedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "localdb_eventlog_events_trimmed_total",
		Help: "Events removed from the queue by retention",
	}, []string{"reason"})

	eventsPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "localdb_eventlog_pending_events",
		Help: "Events waiting in the pending buffer",
	})

	batchWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localdb_eventlog_batch_write_errors_total",
		Help: "Failed batch writes, retried on the next cycle",
	})

	batchWriteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "localdb_eventlog_batch_write_latency_seconds",
		Help:    "Latency of one batch write to the queue",
		Buckets: prometheus.DefBuckets,
	})

	searchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "localdb_eventlog_search_latency_seconds",
		Help:    "Latency of ReadStoredEvents",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
	})

	searchTimeExceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localdb_eventlog_search_time_exceeded_total",
		Help: "Searches that ran out of time and returned partial results",
	})
)

// RecordWritten adds n written events.
func RecordWritten(n int) {
	eventsWrittenTotal.Add(float64(n))
}

// RecordDropped adds n dropped events for reason.
func RecordDropped(reason string, n int) {
	eventsDroppedTotal.WithLabelValues(reason).Add(float64(n))
}

// RecordTrimmed adds n trimmed events for reason.
func RecordTrimmed(reason string, n int) {
	eventsTrimmedTotal.WithLabelValues(reason).Add(float64(n))
}

// RecordPending sets the pending gauge.
func RecordPending(n int) {
	eventsPending.Set(float64(n))
}

// RecordBatchWrite observes one batch write.
func RecordBatchWrite(seconds float64, err error) {
	batchWriteLatency.Observe(seconds)
	if err != nil {
		batchWriteErrors.Inc()
	}
}

// RecordSearch observes one search.
func RecordSearch(seconds float64, timeExceeded bool) {
	searchLatency.Observe(seconds)
	if timeExceeded {
		searchTimeExceeded.Inc()
	}
}
