package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// pragmaName matches valid pragma identifiers. Pragma names cannot be bound
// as parameters, so the name is validated and the value quoted before the
// statement is formatted.
var pragmaName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ApplyPragma applies one engine-level runtime setting.
func (e *Engine) ApplyPragma(ctx context.Context, name string, value any) error {
	stmt, err := FormatPragma(name, value)
	if err != nil {
		return err
	}
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("applying pragma %s: %w", name, err)
	}
	return nil
}

// FormatPragma renders a PRAGMA statement for the given setting.
//
// A nil value renders the bare form ("PRAGMA journal_mode"); anything else
// renders an assignment. String values are single-quoted with embedded
// quotes doubled; booleans become 1/0; integral floats (the only number
// form JSON transports deliver) are rendered without a fraction.
func FormatPragma(name string, value any) (string, error) {
	if !pragmaName.MatchString(name) {
		return "", fmt.Errorf("invalid pragma name %q", name)
	}
	if value == nil {
		return fmt.Sprintf("PRAGMA %s", name), nil
	}
	rendered, err := formatPragmaValue(value)
	if err != nil {
		return "", fmt.Errorf("pragma %s: %w", name, err)
	}
	return fmt.Sprintf("PRAGMA %s = %s", name, rendered), nil
}

func formatPragmaValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'", nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case int:
		return fmt.Sprintf("%d", v), nil
	case int64:
		return fmt.Sprintf("%d", v), nil
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v)), nil
		}
		return fmt.Sprintf("%g", v), nil
	default:
		return "", fmt.Errorf("unsupported pragma value type %T", value)
	}
}
