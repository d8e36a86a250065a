package litebridge

import (
	"errors"
	"strings"

	"github.com/litebridge/litebridge/internal/protocol"
)

// Domain-specific errors for controller operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrClosed is returned for requests that race controller teardown.
	// They fail synchronously rather than hang.
	ErrClosed = errors.New("litebridge: controller is closed")

	// ErrNotOpen is the classification of executor responses reporting that
	// a data operation arrived while no database was open.
	ErrNotOpen = errors.New("litebridge: database is not open")

	// ErrUnsupported is the classification of executor responses reporting
	// that the selected storage backend lacks a required capability, such
	// as snapshot export from a pure in-memory backend.
	ErrUnsupported = errors.New("litebridge: not supported for this storage mode")

	// ErrFilenameRequired is returned for configurations without a
	// database filename.
	ErrFilenameRequired = errors.New("litebridge: config filename is required")
)

// responseError carries an executor error message verbatim while unwrapping
// to the sentinel its canonical fragment classifies it as. The wire schema
// carries only the message string, so classification is by fragment.
type responseError struct {
	msg      string
	sentinel error
}

func (e *responseError) Error() string { return e.msg }
func (e *responseError) Unwrap() error { return e.sentinel }

// classifyResponseError turns an error-status response message into an
// error. Engine errors pass through verbatim with no sentinel.
func classifyResponseError(msg string) error {
	var sentinel error
	switch {
	case strings.Contains(msg, protocol.MsgUnsupported):
		sentinel = ErrUnsupported
	case strings.Contains(msg, protocol.MsgNotOpen),
		strings.Contains(msg, protocol.MsgNotInitialized):
		sentinel = ErrNotOpen
	default:
		return errors.New(msg)
	}
	return &responseError{msg: msg, sentinel: sentinel}
}
