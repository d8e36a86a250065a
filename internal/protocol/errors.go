package protocol

// Canonical failure message fragments.
//
// The wire schema carries failures as a bare message string, so these
// fragments are the only way the two sides agree on what went wrong. The
// executor embeds them in its error-status responses; the controller
// classifies responses by searching for them.
const (
	// MsgNotInitialized: a request arrived before initialize completed.
	MsgNotInitialized = "executor is not initialized"

	// MsgNotOpen: a data operation arrived before open succeeded, or after
	// close or delete.
	MsgNotOpen = "database is not open"

	// MsgAlreadyOpen: initialize or open arrived while a connection is live.
	MsgAlreadyOpen = "database is already open"

	// MsgUnsupported: export, import or wipe was requested against a backend
	// lacking that capability.
	MsgUnsupported = "not supported for this storage mode"

	// MsgOriginMismatch: an inbound message carried an unexpected origin and
	// was not acted upon.
	MsgOriginMismatch = "message origin mismatch"
)
