// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Drop reasons used as metric labels.
const (
	dropExpired     = "expired"
	dropAttempts    = "attempts"
	dropPermanent   = "permanent"
	dropUndecodable = "undecodable"
)

var (
	messagesEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "localdb_outbox_messages_enqueued_total",
		Help: "Messages added to an outbox",
	}, []string{"kind"})

	messagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "localdb_outbox_messages_sent_total",
		Help: "Messages delivered by a sender",
	}, []string{"kind"})

	sendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "localdb_outbox_send_failures_total",
		Help: "Failed send attempts",
	}, []string{"kind"})

	sendRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "localdb_outbox_send_rejected_total",
		Help: "Send attempts rejected by an open circuit breaker",
	}, []string{"kind"})

	messagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "localdb_outbox_messages_dropped_total",
		Help: "Messages removed without delivery",
	}, []string{"kind", "reason"})

	sendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "localdb_outbox_send_latency_seconds",
		Help:    "Latency of one sender call",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "localdb_outbox_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})
)

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
