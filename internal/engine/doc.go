// Package engine adapts the embedded SQLite engine for the executor.
//
// The engine itself — SQL parsing, execution, storage, journaling, the
// on-disk format — is an opaque dependency (mattn/go-sqlite3 behind
// database/sql) and is treated as already correct. This package only
// manages:
//   - Opening a single-connection handle against a backend-resolved path
//   - Sequential pragma application with safe statement formatting
//   - Statement execution with positional parameter binding
//   - Row collection preserving engine emission order
//   - Change-count and last-insert-id readback for write statements
//   - Checkpointing ahead of whole-file snapshot export
//
// Security Considerations:
//   - All statements use parameterised binding; pragma names are validated
//     against an identifier pattern and values are quoted before formatting
//   - Database file permissions are set to 0600 (owner read/write only)
package engine
