package litebridge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/litebridge/litebridge/internal/logging"
	"github.com/litebridge/litebridge/internal/protocol"
	"github.com/litebridge/litebridge/internal/storage"
)

// Config is the controller configuration.
//
// Only Filename is required. Everything else defaults: direct-file storage,
// no pragmas, JSON cell decoding off, in-process executor, info-level JSON
// logging.
type Config struct {
	// Filename is the logical database name, resolved through the selected
	// storage backend. Required.
	Filename string `yaml:"filename"`

	// VFS selects exactly one storage backend.
	VFS VFSConfig `yaml:"vfs"`

	// Pragmas are engine-level runtime settings, applied sequentially in
	// this order after open and before the open request succeeds. Order
	// matters, which is why this is a list and not a map.
	Pragmas []Pragma `yaml:"pragmas"`

	// DecodeJSON opts in to best-effort reinterpretation of query result
	// strings beginning with '{' or '[' as parsed structured data. Off by
	// default: the heuristic can misfire on legitimate text.
	DecodeJSON bool `yaml:"decode_json"`

	// Worker overrides where the executor runs.
	Worker WorkerConfig `yaml:"worker"`

	// Logging configures the structured logger. These are plain values; log
	// sinks cannot cross the channel, and the executor installs its own
	// logger built from the same settings.
	Logging LoggingConfig `yaml:"logging"`
}

// VFSConfig selects the storage backend.
type VFSConfig struct {
	// Type is one of "memory", "file" or "pool". Empty selects "file".
	Type string `yaml:"type"`

	// Pool configures the pool backend; ignored for the other types.
	Pool PoolConfig `yaml:"pool"`
}

// PoolConfig configures the pool-file backend.
type PoolConfig struct {
	// InitialCapacity bounds how many databases the pool holds. Zero
	// selects the default capacity.
	InitialCapacity int `yaml:"initial_capacity"`

	// ClearOnInit wipes the pool when the backend is initialized.
	ClearOnInit bool `yaml:"clear_on_init"`

	// Name is the pool directory.
	Name string `yaml:"name"`
}

// Pragma is one engine-level runtime setting.
type Pragma struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// WorkerConfig overrides the executor entry point.
type WorkerConfig struct {
	// URL, when set, routes all operations to a remote executor serving the
	// websocket channel at this address instead of starting an in-process
	// worker goroutine.
	URL string `yaml:"url"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level filters output: debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`

	// Format selects json (default) or text output.
	Format string `yaml:"format"`

	// Output selects stdout (default) or stderr.
	Output string `yaml:"output"`

	// FilterSQLTrace silences per-statement trace lines in the executor's
	// debug output.
	FilterSQLTrace bool `yaml:"filter_sql_trace"`
}

// LoadConfig reads a Config from a YAML file, applying defaults and
// validating the result.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Filename == "" {
		return ErrFilenameRequired
	}
	if _, err := storage.ParseType(c.VFS.Type); err != nil {
		return err
	}
	if c.VFS.Pool.InitialCapacity < 0 {
		return fmt.Errorf("litebridge: pool initial_capacity cannot be negative")
	}
	for _, p := range c.Pragmas {
		if p.Name == "" {
			return fmt.Errorf("litebridge: pragma name cannot be empty")
		}
	}
	return nil
}

// engineConfig builds the serializable subset of the configuration that
// crosses the channel with the initialize request. It is a fresh copy each
// time; nothing is shared with the executor.
func (c *Config) engineConfig() *protocol.EngineConfig {
	ecfg := &protocol.EngineConfig{
		VFS: protocol.VFSConfig{
			Type: c.VFS.Type,
			Pool: protocol.PoolConfig{
				InitialCapacity: c.VFS.Pool.InitialCapacity,
				ClearOnInit:     c.VFS.Pool.ClearOnInit,
				Name:            c.VFS.Pool.Name,
			},
		},
		DecodeJSON: c.DecodeJSON,
	}
	for _, p := range c.Pragmas {
		ecfg.Pragmas = append(ecfg.Pragmas, protocol.Pragma{Name: p.Name, Value: p.Value})
	}
	return ecfg
}

func (c *Config) loggingConfig() logging.Config {
	return logging.Config{
		Level:          c.Logging.Level,
		Format:         c.Logging.Format,
		Output:         c.Logging.Output,
		FilterSQLTrace: c.Logging.FilterSQLTrace,
	}
}
