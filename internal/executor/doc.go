// Package executor owns the live engine connection and answers operation
// requests arriving over a channel.
//
// One executor runs as one worker goroutine. It consumes requests strictly
// in arrival order and performs one operation at a time — the serialized
// queue that preserves the illusion of sequential execution even when the
// controller pipelines requests without awaiting each one. Responses
// therefore resolve in send order.
//
// Connection state (engine handle, storage backend, merged configuration)
// is an explicit field of the executor instance, never package state, so
// independent executors — and tests — cannot contaminate each other.
//
// Failure isolation: every dispatched operation is wrapped so that any
// error, and any panic, becomes an error-status response. Nothing escapes
// the dispatch boundary; no request is left permanently unanswered by a
// failing operation.
package executor
