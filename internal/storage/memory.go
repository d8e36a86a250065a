package storage

// memoryPath is the engine's in-memory pseudo-path.
const memoryPath = ":memory:"

// memoryBackend keeps the database entirely in engine memory. It persists
// nothing, so it deliberately implements none of Exporter or Importer; a
// snapshot of a memory database has no file to read. Wipe is present and
// trivially succeeds because there is nothing on disk to remove.
type memoryBackend struct{}

func newMemoryBackend() *memoryBackend { return &memoryBackend{} }

func (b *memoryBackend) Type() Type { return TypeMemory }

func (b *memoryBackend) Resolve(filename string) (string, error) {
	if filename == "" {
		return "", ErrInvalidFilename
	}
	return memoryPath, nil
}

func (b *memoryBackend) Close() error { return nil }

func (b *memoryBackend) Wipe() error { return nil }

// Compile-time capability checks: memory must stay non-exportable.
var (
	_ Backend = (*memoryBackend)(nil)
	_ Wiper   = (*memoryBackend)(nil)
)
