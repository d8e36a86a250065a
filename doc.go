// Package litebridge is a thin ergonomic façade over an embedded SQLite
// engine, exposing an asynchronous request/response API.
//
// The caller-facing Controller runs in the application's goroutines. The
// engine connection is owned by an Executor running in an isolated worker
// goroutine (or, optionally, a remote process — see the remote subpackage).
// The two communicate solely through one ordered, asynchronous message
// channel: every operation is encoded as a correlated request, performed by
// the executor against the engine, and answered with exactly one response.
// There is no shared memory across the boundary.
//
// Usage:
//
//	ctrl, err := litebridge.New(litebridge.Config{Filename: "app.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.Close(ctx)
//
//	rows, err := ctrl.Query(ctx, "SELECT id, name FROM users WHERE age > ?", 21)
//
// Readiness is implicit: the first data operation starts the executor,
// initializes the storage backend and opens the database. Ready can be
// called explicitly to front-load that work; concurrent callers share a
// single initialization.
//
// After Close, the controller is reusable: the next data operation (or an
// explicit Ready) transparently starts a fresh executor and re-opens the
// database. A request racing teardown fails fast with ErrClosed; nothing
// ever hangs on a closed controller.
//
// Concurrency:
//   - The executor performs one operation at a time, in arrival order, so
//     pipelined requests resolve in send order with their own results.
//   - Transactions are plain sequential operations. Nested or concurrently
//     initiated transactions on one controller are not detected or
//     rejected; serialising transaction use is the caller's responsibility.
//   - In-flight operations cannot be cancelled. Cancelling a context only
//     abandons the wait; the executor still completes the operation.
package litebridge
