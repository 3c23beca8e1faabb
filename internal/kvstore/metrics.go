// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package kvstore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for store operations
var (
	storeOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "localdb_store_operations_total",
		Help: "Total number of key-value store operations",
	}, []string{"backend", "op"})

	storeOpErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "localdb_store_operation_errors_total",
		Help: "Total number of failed key-value store operations",
	}, []string{"backend", "op"})

	storeOpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "localdb_store_operation_latency_seconds",
		Help:    "Key-value store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "op"})

	storeDiskBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "localdb_store_disk_bytes",
		Help: "Advisory storage footprint reported by the backend",
	}, []string{"backend"})

	storeGCRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localdb_store_gc_runs_total",
		Help: "Total number of badger value log GC runs",
	})
)

// RecordOperation records one store operation and its outcome.
func RecordOperation(backend, op string, start time.Time, err error) {
	storeOpsTotal.WithLabelValues(backend, op).Inc()
	storeOpLatency.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
	if err != nil {
		storeOpErrors.WithLabelValues(backend, op).Inc()
	}
}

// RecordDiskSpace sets the disk usage gauge.
func RecordDiskSpace(backend string, bytes int64) {
	storeDiskBytes.WithLabelValues(backend).Set(float64(bytes))
}

// RecordGCRun increments the GC run counter.
func RecordGCRun() {
	storeGCRuns.Inc()
}
