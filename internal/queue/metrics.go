// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/localdb/internal/kvstore"
)

var (
	queueSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "localdb_queue_size",
		Help: "Number of elements in the persistent queue",
	}, []string{"category"})

	queueResetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "localdb_queue_format_resets_total",
		Help: "Queues cleared on open because of a format version mismatch",
	}, []string{"category"})
)

func recordSize(cat kvstore.Category, n int) {
	queueSize.WithLabelValues(string(cat)).Set(float64(n))
}

func recordReset(cat kvstore.Category) {
	queueResetsTotal.WithLabelValues(string(cat)).Inc()
}
