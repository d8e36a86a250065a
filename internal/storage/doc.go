// Package storage provides the persistence backends a connection can be
// opened against.
//
// Exactly one backend is selected at initialize time, by the vfs type
// discriminant:
//
//   - memory: nothing touches disk; snapshots and imports are unsupported
//   - file:   the database lives at the configured path directly
//   - pool:   databases live inside a named directory pool with a fixed
//     capacity, in the manner of a preallocated file pool
//
// Snapshot export, blob import and wipe-all-files are optional per backend.
// Callers must probe for them by interface assertion (Exporter, Importer,
// Wiper) rather than assume their presence; the memory backend, for one,
// has nothing to export.
package storage
