package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Pool defaults.
const (
	// defaultPoolName is the pool directory used when none is configured.
	defaultPoolName = "litebridge-pool"

	// defaultPoolCapacity bounds the number of databases a pool holds when
	// no capacity is configured.
	defaultPoolCapacity = 6
)

// poolBackend stores databases as files inside one dedicated directory.
// Capacity is fixed at creation: resolving or importing a database name the
// pool does not yet hold fails once the pool is full. Wipe removes the
// entire pool, which may carry data from prior sessions.
type poolBackend struct {
	dir      string
	capacity int
}

func newPoolBackend(cfg PoolConfig) (*poolBackend, error) {
	name := cfg.Name
	if name == "" {
		name = defaultPoolName
	}
	capacity := cfg.InitialCapacity
	if capacity <= 0 {
		capacity = defaultPoolCapacity
	}

	b := &poolBackend{dir: filepath.Clean(name), capacity: capacity}
	if cfg.ClearOnInit {
		if err := b.Wipe(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(b.dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating pool directory: %w", err)
	}
	return b, nil
}

func (b *poolBackend) Type() Type { return TypePool }

func (b *poolBackend) Resolve(filename string) (string, error) {
	path, err := b.entryPath(filename)
	if err != nil {
		return "", err
	}
	if err := b.ensureCapacity(path); err != nil {
		return "", err
	}
	return path, nil
}

func (b *poolBackend) Export(filename string) ([]byte, error) {
	path, err := b.entryPath(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("reading pool entry: %w", err)
	}
	return data, nil
}

func (b *poolBackend) Import(filename string, data []byte) error {
	path, err := b.entryPath(filename)
	if err != nil {
		return err
	}
	if err := b.ensureCapacity(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return fmt.Errorf("writing pool entry: %w", err)
	}
	return nil
}

// Wipe removes the pool directory and everything in it.
func (b *poolBackend) Wipe() error {
	if err := os.RemoveAll(b.dir); err != nil {
		return fmt.Errorf("wiping pool: %w", err)
	}
	return nil
}

func (b *poolBackend) Close() error { return nil }

// entryPath flattens a logical filename into a single pool entry. Logical
// names may look absolute ("/session.db") or nested ("apps/main.db");
// inside the pool they are flat, with the separator encoded so distinct
// logical paths stay distinct. Empty segments and traversal are rejected.
func (b *poolBackend) entryPath(filename string) (string, error) {
	name := strings.TrimPrefix(filepath.ToSlash(filename), "/")
	if name == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidFilename, filename)
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %s", ErrInvalidFilename, filename)
		}
	}
	flat := strings.ReplaceAll(strings.ReplaceAll(name, "%", "%25"), "/", "%2F")
	return filepath.Join(b.dir, flat), nil
}

// ensureCapacity admits paths already resident in the pool and rejects new
// ones once the pool is full.
func (b *poolBackend) ensureCapacity(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	n, err := b.count()
	if err != nil {
		return err
	}
	if n >= b.capacity {
		return fmt.Errorf("%w (capacity %d)", ErrPoolExhausted, b.capacity)
	}
	return nil
}

// count reports resident databases, excluding engine sidecar files.
func (b *poolBackend) count() (int, error) {
	entries, err := os.ReadDir(b.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading pool directory: %w", err)
	}
	n := 0
	for _, entry := range entries {
		if entry.IsDir() || isSidecar(entry.Name()) {
			continue
		}
		n++
	}
	return n, nil
}

func isSidecar(name string) bool {
	for _, suffix := range sidecarSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

var (
	_ Backend  = (*poolBackend)(nil)
	_ Exporter = (*poolBackend)(nil)
	_ Importer = (*poolBackend)(nil)
	_ Wiper    = (*poolBackend)(nil)
)
