// Package remote runs the executor behind a websocket endpoint instead of
// an in-process worker goroutine.
//
// The wire format is the JSON encoding of the protocol message schema —
// {id, kind, sql?, params?, config?, filename?, data?} out and
// {id, status, results?, error?} back — so any compatible peer honouring
// that contract can sit on either side. Ordering across the channel is the
// socket's: one websocket over one TCP connection delivers in send order.
//
// Server side, each accepted connection gets its own executor instance with
// its own connection state; sessions cannot contaminate each other. The
// message origin is stamped server-side from the HTTP Origin header, and
// the executor verifies it against the configured allowed origin.
//
// Client side, Dial returns a channel end a Controller can drive; setting
// Config.Worker.URL wires this up automatically.
package remote
