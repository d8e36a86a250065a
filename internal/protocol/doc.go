// Package protocol defines the message contract between the controller and
// the executor.
//
// Every operation crosses the channel as a Request carrying a correlation id
// and an operation kind, and comes back as exactly one Response carrying the
// same id. The schema is stable: a compatible alternate executor or
// controller only has to honour these two shapes.
//
// Wire layout (JSON, used by remote transports; in-process channels pass the
// structs directly):
//
//	request:  {id, kind, sql?, params?, config?, filename?, data?}
//	response: {id, status: success|error|ready, results?, error?}
//
// Results are polymorphic: void, a row sequence, run metadata, or a binary
// blob, depending on the originating kind. The Rows, Meta and Blob helpers
// coerce a Response's results back into their typed form regardless of
// whether the value arrived in-process or as undecoded JSON.
package protocol
