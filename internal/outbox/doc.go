// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

// Package outbox delivers SMS and e-mail send requests from a durable FIFO
// queue.
//
// Enqueue adds a message at the head of a persistent circular queue. A
// single dispatcher goroutine per outbox peeks the tail, hands the message
// to a Sender and removes it only after the Sender reports success, so a
// crash between send and removal delivers the message again on restart.
// Gateways should treat Message.ID as an idempotency key.
//
// Delivery is throttled with a token bucket (golang.org/x/time/rate) and
// protected by a circuit breaker (sony/gobreaker). Messages are dropped
// with a warning when they are older than Config.MaxAge, when they fail
// Config.MaxAttempts times, or when the Sender returns a Permanent error.
//
// The attempt counter lives in memory and restarts at zero after a
// process restart.
//
// Usage:
//
//	q, _ := registry.Open(ctx, kvstore.CategorySMSQueue)
//	ob, _ := outbox.New(q, outbox.KindSMS, outbox.NewHTTPSender(url, token), outbox.DefaultConfig())
//	_ = ob.Start(ctx)
//	_ = ob.Enqueue(ctx, outbox.NewMessage(outbox.KindSMS, "+14155550123", "", "Your code is 1234"))
package outbox
