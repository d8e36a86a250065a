package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Filesystem permission modes.
const (
	// dirPermissions is the permission mode for created directories.
	dirPermissions = 0750

	// filePermissions is the permission mode for database files.
	filePermissions = 0600
)

// sidecarSuffixes are the engine's companion files, removed alongside the
// database itself on wipe.
var sidecarSuffixes = []string{"-wal", "-shm", "-journal"}

// fileBackend stores each database directly at its configured path. It
// remembers every path it has resolved or imported so Wipe can remove
// exactly the files it owns.
type fileBackend struct {
	mu    sync.Mutex
	known map[string]struct{}
}

func newFileBackend() *fileBackend {
	return &fileBackend{known: make(map[string]struct{})}
}

func (b *fileBackend) Type() Type { return TypeFile }

func (b *fileBackend) Resolve(filename string) (string, error) {
	path, err := cleanPath(filename)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return "", fmt.Errorf("creating database directory: %w", err)
		}
	}
	b.remember(path)
	return path, nil
}

func (b *fileBackend) Export(filename string) ([]byte, error) {
	path, err := cleanPath(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("reading database file: %w", err)
	}
	return data, nil
}

func (b *fileBackend) Import(filename string, data []byte) error {
	path, err := b.Resolve(filename)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return fmt.Errorf("writing database file: %w", err)
	}
	return nil
}

func (b *fileBackend) Wipe() error {
	b.mu.Lock()
	paths := make([]string, 0, len(b.known))
	for p := range b.known {
		paths = append(paths, p)
	}
	b.known = make(map[string]struct{})
	b.mu.Unlock()

	for _, path := range paths {
		if err := removeDatabase(path); err != nil {
			return err
		}
	}
	return nil
}

func (b *fileBackend) Close() error { return nil }

func (b *fileBackend) remember(path string) {
	b.mu.Lock()
	b.known[path] = struct{}{}
	b.mu.Unlock()
}

// cleanPath normalises a logical filename into a filesystem path. Leading
// slashes are kept (absolute paths are legal for this backend) but empty
// names and parent traversal are not.
func cleanPath(filename string) (string, error) {
	if filename == "" {
		return "", ErrInvalidFilename
	}
	path := filepath.Clean(filename)
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %s", ErrInvalidFilename, filename)
		}
	}
	return path, nil
}

// removeDatabase deletes a database file and its sidecars, ignoring files
// that are already gone.
func removeDatabase(path string) error {
	targets := append([]string{path}, sidecarPaths(path)...)
	for _, t := range targets {
		if err := os.Remove(t); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", t, err)
		}
	}
	return nil
}

func sidecarPaths(path string) []string {
	out := make([]string, 0, len(sidecarSuffixes))
	for _, suffix := range sidecarSuffixes {
		out = append(out, path+suffix)
	}
	return out
}

var (
	_ Backend  = (*fileBackend)(nil)
	_ Exporter = (*fileBackend)(nil)
	_ Importer = (*fileBackend)(nil)
	_ Wiper    = (*fileBackend)(nil)
)
