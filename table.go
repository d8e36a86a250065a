package litebridge

import (
	"context"
	"fmt"
	"strings"
)

// Table is a lightweight view binding the data operations to one table name
// on the same controller. It is pure convenience — not a distinct runtime
// entity, not a query builder.
type Table struct {
	c    *Controller
	name string
}

// Table returns a view over the named table.
func (c *Controller) Table(name string) *Table {
	return &Table{c: c, name: name}
}

// Name returns the table name the view is bound to.
func (t *Table) Name() string { return t.name }

// Execute sends a statement through the owning controller.
func (t *Table) Execute(ctx context.Context, sql string, params ...any) error {
	return t.c.Execute(ctx, sql, params...)
}

// Query sends a query through the owning controller.
func (t *Table) Query(ctx context.Context, sql string, params ...any) ([]Row, error) {
	return t.c.Query(ctx, sql, params...)
}

// Run sends a write statement through the owning controller.
func (t *Table) Run(ctx context.Context, sql string, params ...any) (RunMeta, error) {
	return t.c.Run(ctx, sql, params...)
}

// Count reports the number of rows currently in the table.
func (t *Table) Count(ctx context.Context) (int64, error) {
	rows, err := t.c.Query(ctx, fmt.Sprintf("SELECT COUNT(*) AS n FROM %s", quoteIdent(t.name)))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("litebridge: count returned no rows")
	}
	// Remote channels deliver numbers as float64 after JSON decoding.
	switch n := rows[0]["n"].(type) {
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("litebridge: unexpected count type %T", n)
	}
}

// quoteIdent quotes an identifier for the engine, doubling embedded
// double quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
