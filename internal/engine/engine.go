package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Engine configuration constants.
const (
	// filePermissions is the permission mode for the database file.
	filePermissions = 0600

	// busyTimeout is the maximum time to wait for a database lock.
	// Prevents "database is locked" errors under contention.
	busyTimeout = 5 * time.Second

	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second

	// memoryPath is the pseudo-path selecting a pure in-memory database.
	memoryPath = ":memory:"
)

// Engine wraps a single live SQLite connection.
//
// The executor owns exactly one Engine per open connection; nothing else
// touches it. All methods run on the executor's serialized operation queue,
// so the single underlying connection never sees interleaved statements.
type Engine struct {
	db   *sql.DB
	path string
}

// Open opens (creating if absent) the database at the given path, which is
// either a backend-resolved filesystem path or the in-memory pseudo-path.
//
// The connection pool is pinned to one connection: the engine is
// effectively single-connection and an in-memory database would otherwise
// vanish between pooled connections.
func Open(path string) (*Engine, error) {
	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d", path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	e := &Engine{db: db, path: path}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	if path != memoryPath {
		// Ignore error - file might not exist yet on first run, will be set
		// after first write.
		_ = os.Chmod(path, filePermissions) //nolint:errcheck // Intentional: first run creates file later
	}

	return e, nil
}

// Path returns the path the engine was opened against.
func (e *Engine) Path() string {
	return e.path
}

// Execute runs a statement and discards any rows it produces.
func (e *Engine) Execute(ctx context.Context, query string, params []any) error {
	if _, err := e.db.ExecContext(ctx, query, params...); err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}
	return nil
}

// Query runs a statement and collects every produced row, in engine
// emission order. Each row maps column name to the driver-reported value.
func (e *Engine) Query(ctx context.Context, query string, params []any) ([]map[string]any, error) {
	rows, err := e.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read errors surface via rows.Err

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading result columns: %w", err)
	}

	var out []map[string]any
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading result rows: %w", err)
	}
	return out, nil
}

// Run executes a write statement and reads back its metadata: the number of
// changed rows and, only when that count is positive, the last insert id.
func (e *Engine) Run(ctx context.Context, query string, params []any) (changes int64, lastInsert *int64, err error) {
	res, err := e.db.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, nil, fmt.Errorf("executing statement: %w", err)
	}
	changes, err = res.RowsAffected()
	if err != nil {
		return 0, nil, fmt.Errorf("reading change count: %w", err)
	}
	if changes > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, nil, fmt.Errorf("reading last insert id: %w", err)
		}
		lastInsert = &id
	}
	return changes, lastInsert, nil
}

// Checkpoint flushes the write-ahead log back into the main database file
// so its on-disk bytes are current. Harmless outside WAL mode.
func (e *Engine) Checkpoint(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpointing database: %w", err)
	}
	return nil
}

// Close closes the engine connection.
func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}
