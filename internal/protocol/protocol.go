package protocol

import "fmt"

// Kind identifies the operation a Request asks the executor to perform.
//
// The set is closed: the executor dispatches over it exhaustively, so adding
// a new kind is a compile-time visible change.
type Kind string

// The nine operation kinds.
const (
	KindInitialize Kind = "initialize"
	KindOpen       Kind = "open"
	KindClose      Kind = "close"
	KindExecute    Kind = "execute"
	KindQuery      Kind = "query"
	KindRun        Kind = "run"
	KindExport     Kind = "export"
	KindImport     Kind = "import"
	KindDelete     Kind = "delete"
)

// Valid reports whether k is one of the defined operation kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInitialize, KindOpen, KindClose, KindExecute, KindQuery,
		KindRun, KindExport, KindImport, KindDelete:
		return true
	}
	return false
}

// Status is the outcome field of a Response.
type Status string

const (
	// StatusSuccess marks a completed operation; Results holds its value.
	StatusSuccess Status = "success"

	// StatusError marks a failed operation; Error holds the message.
	StatusError Status = "error"

	// StatusReady is the executor's startup handshake. It carries no id and
	// is sent exactly once, before any request is answered.
	StatusReady Status = "ready"
)

// Request is one operation sent from the controller to the executor.
//
// ID is the correlation token: unique for the lifetime of one controller,
// monotonically assigned, never reused while a response is outstanding.
// Which payload fields are populated depends on Kind.
type Request struct {
	ID       uint64        `json:"id"`
	Kind     Kind          `json:"kind"`
	SQL      string        `json:"sql,omitempty"`
	Params   []any         `json:"params,omitempty"`
	Config   *EngineConfig `json:"config,omitempty"`
	Filename string        `json:"filename,omitempty"`
	Data     []byte        `json:"data,omitempty"`

	// Origin identifies where the message entered the channel, when the
	// transport knows (remote transports stamp it from the HTTP Origin
	// header). Empty for in-process channels.
	Origin string `json:"origin,omitempty"`
}

// Response is the executor's answer to exactly one Request.
//
// Results is void, []Row, *RunMeta or []byte depending on the originating
// kind. Remote transports deliver it as json.RawMessage; use Rows, Meta or
// Blob to coerce.
type Response struct {
	ID      uint64 `json:"id"`
	Status  Status `json:"status"`
	Results any    `json:"results,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Row is one query result row keyed by column name. Column order carries no
// meaning; row order does, and is preserved exactly as the engine emitted it.
type Row = map[string]any

// RunMeta is the metadata a run operation reports back.
//
// LastInsertRowID is only present when Changes is positive; a statement that
// touched no rows reports no insert id at all.
type RunMeta struct {
	LastInsertRowID *int64 `json:"lastInsertRowId,omitempty"`
	Changes         int64  `json:"changes"`
}

// EngineConfig is the serializable subset of the public configuration that
// crosses the channel with an initialize request. It is copied across the
// boundary, never shared; function-valued configuration (log sinks) cannot
// cross and the executor installs its own.
type EngineConfig struct {
	VFS        VFSConfig `json:"vfs"`
	Pragmas    []Pragma  `json:"pragmas,omitempty"`
	DecodeJSON bool      `json:"decode_json,omitempty"`
}

// VFSConfig selects exactly one storage backend.
type VFSConfig struct {
	Type string     `json:"type,omitempty"`
	Pool PoolConfig `json:"pool,omitempty"`
}

// PoolConfig configures the pool-file backend.
type PoolConfig struct {
	InitialCapacity int    `json:"initial_capacity,omitempty"`
	ClearOnInit     bool   `json:"clear_on_init,omitempty"`
	Name            string `json:"name,omitempty"`
}

// Pragma is one engine-level runtime setting. Pragmas are applied
// sequentially in the order supplied, which is why they travel as a list and
// not a map.
type Pragma struct {
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
}

// ErrorResponse builds an error-status Response for the given request id.
func ErrorResponse(id uint64, err error) Response {
	return Response{ID: id, Status: StatusError, Error: err.Error()}
}

// SuccessResponse builds a success-status Response carrying results.
func SuccessResponse(id uint64, results any) Response {
	return Response{ID: id, Status: StatusSuccess, Results: results}
}

// ReadyResponse builds the one-off startup handshake.
func ReadyResponse() Response {
	return Response{Status: StatusReady}
}

func (k Kind) String() string { return string(k) }

// UnknownKindError describes a request kind outside the closed set. It can
// only arise from a foreign peer on a remote channel; the in-process
// controller never produces one.
func UnknownKindError(k Kind) error {
	return fmt.Errorf("unknown operation kind %q", string(k))
}
