package storage

import "fmt"

// Type discriminates the mutually exclusive backend variants.
type Type string

const (
	TypeMemory Type = "memory"
	TypeFile   Type = "file"
	TypePool   Type = "pool"
)

// ParseType maps a configuration string to a backend Type. The empty string
// selects the direct-file backend, which is the default.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case "":
		return TypeFile, nil
	case TypeMemory, TypeFile, TypePool:
		return Type(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// Backend resolves logical database names to something the engine can open.
//
// A backend instance is created at initialize time and owned exclusively by
// the executor. Optional capabilities (Exporter, Importer, Wiper) are probed
// by interface assertion.
type Backend interface {
	// Type returns the backend discriminant.
	Type() Type

	// Resolve maps a logical database filename to the path handed to the
	// engine, creating parent directories as needed. For the memory backend
	// this is the engine's in-memory pseudo-path.
	Resolve(filename string) (string, error)

	// Close releases backend resources. It does not touch persisted data.
	Close() error
}

// Exporter is the whole-database snapshot capability. The engine connection
// must be checkpointed before Export so the bytes on disk are current.
type Exporter interface {
	Export(filename string) ([]byte, error)
}

// Importer is the load-blob-into-storage capability.
type Importer interface {
	Import(filename string, data []byte) error
}

// Wiper removes every persisted file the backend owns.
type Wiper interface {
	Wipe() error
}

// Config selects and parameterises a backend.
type Config struct {
	Type Type
	Pool PoolConfig
}

// PoolConfig configures the pool backend.
type PoolConfig struct {
	// Name is the pool directory. Relative names resolve against the
	// working directory.
	Name string

	// InitialCapacity bounds how many databases the pool will hold. Zero
	// selects the default capacity.
	InitialCapacity int

	// ClearOnInit wipes the pool's contents when the backend is created.
	ClearOnInit bool
}

// New constructs the backend selected by cfg.
func New(cfg Config) (Backend, error) {
	switch cfg.Type {
	case TypeMemory:
		return newMemoryBackend(), nil
	case TypeFile, "":
		return newFileBackend(), nil
	case TypePool:
		return newPoolBackend(cfg.Pool)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, string(cfg.Type))
	}
}
