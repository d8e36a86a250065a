package executor

import (
	"errors"

	"github.com/litebridge/litebridge/internal/protocol"
)

// Domain-specific errors for executor dispatch. Their messages embed the
// canonical protocol fragments so the controller can classify error
// responses from the message string, which is all the wire schema carries.
var (
	// ErrNotInitialized is returned for requests arriving before initialize.
	ErrNotInitialized = errors.New("executor: " + protocol.MsgNotInitialized)

	// ErrNotOpen is returned for data operations before open succeeded or
	// after close/delete.
	ErrNotOpen = errors.New("executor: " + protocol.MsgNotOpen)

	// ErrAlreadyOpen is returned when initialize or open arrives while a
	// connection is live.
	ErrAlreadyOpen = errors.New("executor: " + protocol.MsgAlreadyOpen)

	// ErrUnsupported is returned when the selected backend lacks the
	// capability an operation needs.
	ErrUnsupported = errors.New("executor: " + protocol.MsgUnsupported)

	// ErrOriginMismatch is returned for messages from an unexpected origin.
	ErrOriginMismatch = errors.New("executor: " + protocol.MsgOriginMismatch)

	// ErrMissingConfig is returned for an initialize request without an
	// engine configuration payload.
	ErrMissingConfig = errors.New("executor: initialize requires a configuration")

	// ErrImportOverOpen is returned when an import targets the filename of
	// the currently open database.
	ErrImportOverOpen = errors.New("executor: cannot import over the open database")
)
