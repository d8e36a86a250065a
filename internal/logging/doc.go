// Package logging provides structured logging for litebridge.
//
// It wraps log/slog with level-based filtering, a configurable format and
// output, and a dedicated SQL trace channel that can be silenced without
// losing the rest of the debug output.
//
// Log sinks are deliberately not part of the configuration that crosses the
// channel to the executor: function values cannot cross an asynchronous
// message boundary. Each side constructs its own Logger from the plain
// serializable settings instead.
package logging
