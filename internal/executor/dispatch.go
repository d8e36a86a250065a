package executor

import (
	"context"
	"fmt"

	"github.com/litebridge/litebridge/internal/engine"
	"github.com/litebridge/litebridge/internal/protocol"
	"github.com/litebridge/litebridge/internal/storage"
)

// dispatch performs one request and builds its response. Every failure
// mode, including a panic inside an operation, becomes an error-status
// response; nothing propagates past here.
func (e *Executor) dispatch(req protocol.Request) (res protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("operation panicked", "kind", req.Kind, "id", req.ID, "panic", r)
			res = protocol.ErrorResponse(req.ID, fmt.Errorf("executor: %s panicked: %v", req.Kind, r))
		}
	}()

	// Verify the message origin when the transport supplied one. Messages
	// with no origin information (in-process channels) are exempt.
	if e.origin != "" && req.Origin != "" && req.Origin != e.origin {
		e.logger.Warn("rejected message from unexpected origin", "origin", req.Origin, "id", req.ID)
		return protocol.ErrorResponse(req.ID, ErrOriginMismatch)
	}

	ctx := context.Background()

	var results any
	var err error
	switch req.Kind {
	case protocol.KindInitialize:
		err = e.initialize(req)
	case protocol.KindOpen:
		err = e.open(ctx, req)
	case protocol.KindExecute:
		err = e.execute(ctx, req)
	case protocol.KindQuery:
		results, err = e.query(ctx, req)
	case protocol.KindRun:
		results, err = e.run(ctx, req)
	case protocol.KindExport:
		results, err = e.export(ctx)
	case protocol.KindImport:
		err = e.importDB(req)
	case protocol.KindClose:
		err = e.close()
	case protocol.KindDelete:
		err = e.deleteDB()
	default:
		// Only reachable from a foreign peer on a remote channel.
		err = protocol.UnknownKindError(req.Kind)
	}

	if err != nil {
		e.logger.Debug("operation failed", "kind", req.Kind, "id", req.ID, "error", err)
		return protocol.ErrorResponse(req.ID, err)
	}
	return protocol.SuccessResponse(req.ID, results)
}

// initialize installs the configured storage backend and retains the merged
// configuration. Re-initializing an open connection is an error; replacing
// a backend that was initialized but never opened is allowed, and the old
// backend is released first rather than silently overwritten.
func (e *Executor) initialize(req protocol.Request) error {
	if req.Config == nil {
		return ErrMissingConfig
	}
	if e.state.open() {
		return ErrAlreadyOpen
	}

	typ, err := storage.ParseType(req.Config.VFS.Type)
	if err != nil {
		return err
	}
	backend, err := storage.New(storage.Config{
		Type: typ,
		Pool: storage.PoolConfig{
			Name:            req.Config.VFS.Pool.Name,
			InitialCapacity: req.Config.VFS.Pool.InitialCapacity,
			ClearOnInit:     req.Config.VFS.Pool.ClearOnInit,
		},
	})
	if err != nil {
		return err
	}

	if e.state.initialized() {
		if cerr := e.state.backend.Close(); cerr != nil {
			e.logger.Warn("releasing replaced backend", "error", cerr)
		}
	}
	e.state.backend = backend
	e.state.cfg = *req.Config
	e.logger.Debug("backend initialized", "type", string(typ))
	return nil
}

// open opens the named database through the selected backend, then applies
// every configured pragma sequentially in supplied order. The first pragma
// failure aborts the remainder, closes the half-open connection and reports
// the error; there is no partial-apply rollback.
func (e *Executor) open(ctx context.Context, req protocol.Request) error {
	if !e.state.initialized() {
		return ErrNotInitialized
	}
	if e.state.open() {
		return ErrAlreadyOpen
	}

	path, err := e.state.backend.Resolve(req.Filename)
	if err != nil {
		return err
	}
	eng, err := engine.Open(path)
	if err != nil {
		return err
	}
	for _, p := range e.state.cfg.Pragmas {
		if err := eng.ApplyPragma(ctx, p.Name, p.Value); err != nil {
			eng.Close() //nolint:errcheck // Best effort cleanup on error path
			return err
		}
	}

	e.state.eng = eng
	e.state.filename = req.Filename
	e.logger.Info("database opened", "filename", req.Filename)
	return nil
}

func (e *Executor) execute(ctx context.Context, req protocol.Request) error {
	if !e.state.open() {
		return ErrNotOpen
	}
	e.logger.TraceSQL(req.SQL)
	return e.state.eng.Execute(ctx, req.SQL, req.Params)
}

func (e *Executor) query(ctx context.Context, req protocol.Request) (any, error) {
	if !e.state.open() {
		return nil, ErrNotOpen
	}
	e.logger.TraceSQL(req.SQL)
	rows, err := e.state.eng.Query(ctx, req.SQL, req.Params)
	if err != nil {
		return nil, err
	}
	if e.state.cfg.DecodeJSON {
		decodeRows(rows)
	}
	return []protocol.Row(rows), nil
}

func (e *Executor) run(ctx context.Context, req protocol.Request) (any, error) {
	if !e.state.open() {
		return nil, ErrNotOpen
	}
	e.logger.TraceSQL(req.SQL)
	changes, lastInsert, err := e.state.eng.Run(ctx, req.SQL, req.Params)
	if err != nil {
		return nil, err
	}
	return &protocol.RunMeta{LastInsertRowID: lastInsert, Changes: changes}, nil
}

// export snapshots the open database as a binary blob. The engine is
// checkpointed first so the backend reads current bytes.
func (e *Executor) export(ctx context.Context) (any, error) {
	if !e.state.open() {
		return nil, ErrNotOpen
	}
	exporter, ok := e.state.backend.(storage.Exporter)
	if !ok {
		return nil, fmt.Errorf("%w: export", ErrUnsupported)
	}
	if err := e.state.eng.Checkpoint(ctx); err != nil {
		return nil, err
	}
	return exporter.Export(e.state.filename)
}

// importDB loads a binary blob into storage under the given name. The
// currently open database cannot be replaced underneath its connection.
func (e *Executor) importDB(req protocol.Request) error {
	if !e.state.initialized() {
		return ErrNotInitialized
	}
	importer, ok := e.state.backend.(storage.Importer)
	if !ok {
		return fmt.Errorf("%w: import", ErrUnsupported)
	}
	if e.state.open() && req.Filename == e.state.filename {
		return ErrImportOverOpen
	}
	return importer.Import(req.Filename, req.Data)
}

// close closes the engine connection and clears all connection state, so
// subsequent requests correctly see "not open".
func (e *Executor) close() error {
	if !e.state.open() {
		return ErrNotOpen
	}
	err := e.state.eng.Close()
	if cerr := e.state.backend.Close(); cerr != nil && err == nil {
		err = cerr
	}
	e.state = connState{}
	e.logger.Info("database closed")
	return err
}

// deleteDB closes the connection if one is open, then wipes the backend's
// persisted files entirely. The pool may hold data from a prior session, so
// this works without an open connection.
func (e *Executor) deleteDB() error {
	if !e.state.initialized() {
		return ErrNotInitialized
	}
	if e.state.open() {
		if err := e.state.eng.Close(); err != nil {
			e.logger.Warn("closing engine before delete", "error", err)
		}
	}
	wiper, ok := e.state.backend.(storage.Wiper)
	if !ok {
		return fmt.Errorf("%w: delete", ErrUnsupported)
	}
	err := wiper.Wipe()
	if cerr := e.state.backend.Close(); cerr != nil && err == nil {
		err = cerr
	}
	e.state = connState{}
	e.logger.Info("database deleted")
	return err
}
