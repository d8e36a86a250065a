package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging settings. Every field is a plain serializable
// value; there are no function-valued fields by design.
type Config struct {
	// Level filters output: debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`

	// Format selects the handler: json (default) or text.
	Format string `yaml:"format"`

	// Output selects the destination: stdout (default) or stderr.
	Output string `yaml:"output"`

	// FilterSQLTrace silences per-statement trace lines while keeping the
	// rest of the debug output.
	FilterSQLTrace bool `yaml:"filter_sql_trace"`
}

// Logger wraps slog.Logger with litebridge-specific functionality.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
	filterSQL bool
}

// New creates a new Logger with the specified configuration.
func New(cfg Config) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "litebridge"),
	})

	return &Logger{
		Logger:    slog.New(handler),
		filterSQL: cfg.FilterSQLTrace,
	}
}

// parseLevel converts a string log level to slog.Level.
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with additional default attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		filterSQL: l.filterSQL,
	}
}

// TraceSQL logs one executed statement at debug level, unless SQL tracing
// is filtered.
func (l *Logger) TraceSQL(sql string, args ...any) {
	if l.filterSQL {
		return
	}
	l.Debug("sql", append([]any{"statement", sql}, args...)...)
}

// Default creates a default logger for use before configuration is loaded.
// It outputs to stdout in JSON format at info level.
func Default() *Logger {
	return New(Config{Level: "info", Format: "json", Output: "stdout"})
}
