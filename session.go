package litebridge

import (
	"context"
	"errors"
	"sync"

	"github.com/litebridge/litebridge/internal/channel"
	"github.com/litebridge/litebridge/internal/logging"
	"github.com/litebridge/litebridge/internal/protocol"
)

// Row is one query result row keyed by column name. Column order carries no
// meaning; row order matches engine emission order exactly.
type Row = map[string]any

// RunMeta is the metadata a Run operation reports.
//
// LastInsertRowID is present only when Changes is positive; a statement
// that touched no rows reports no insert id at all.
type RunMeta struct {
	LastInsertRowID *int64
	Changes         int64
}

// session is one live controller↔executor attachment: a channel peer, the
// pending request table and the dispatch goroutine correlating responses
// back to callers. A controller discards its session on Close/Delete and
// builds a fresh one on the next Ready.
type session struct {
	peer   channel.Peer
	logger *logging.Logger

	// pending maps outstanding correlation ids to their waiting caller.
	// Entries are inserted before send and removed exactly once, at the
	// first matching response. Ids are monotonic and never reused while a
	// response is outstanding.
	mu      sync.Mutex
	pending map[uint64]chan protocol.Response
	nextID  uint64
	closed  bool

	handshake chan struct{} // closed at the executor's ready handshake
	hsOnce    sync.Once
	done      chan struct{} // closed when the dispatch loop exits
}

func newSession(peer channel.Peer, logger *logging.Logger) *session {
	s := &session{
		peer:      peer,
		logger:    logger,
		pending:   make(map[uint64]chan protocol.Response),
		handshake: make(chan struct{}),
		done:      make(chan struct{}),
	}
	go s.dispatchLoop()
	return s
}

// dispatchLoop correlates every arriving response to its pending request
// purely by id lookup. A response with no matching entry is dropped
// silently: there is no owner to notify, and dropping protects against
// stray or duplicate messages.
func (s *session) dispatchLoop() {
	defer close(s.done)
	for {
		select {
		case res := <-s.peer.Responses():
			if res.Status == protocol.StatusReady {
				s.hsOnce.Do(func() { close(s.handshake) })
				continue
			}
			s.mu.Lock()
			ch, ok := s.pending[res.ID]
			delete(s.pending, res.ID)
			s.mu.Unlock()
			if !ok {
				s.logger.Debug("dropping unmatched response", "id", res.ID)
				continue
			}
			ch <- res
		case <-s.peer.Done():
			return
		}
	}
}

// awaitReady blocks until the executor's startup handshake arrives.
func (s *session) awaitReady(ctx context.Context) error {
	select {
	case <-s.handshake:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// call sends one request and suspends until its correlated response. A
// cancelled context abandons the wait only — the executor still completes
// the operation; it is never cancelled remotely.
func (s *session) call(ctx context.Context, req protocol.Request) (any, error) {
	ch := make(chan protocol.Response, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.nextID++
	req.ID = s.nextID
	s.pending[req.ID] = ch
	s.mu.Unlock()

	if err := s.peer.Send(req); err != nil {
		s.forget(req.ID)
		if errors.Is(err, channel.ErrClosed) {
			return nil, ErrClosed
		}
		return nil, err
	}

	select {
	case res := <-ch:
		if res.Status == protocol.StatusError {
			return nil, classifyResponseError(res.Error)
		}
		return res.Results, nil
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		s.forget(req.ID)
		return nil, ctx.Err()
	}
}

func (s *session) forget(id uint64) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// shutdown tears the channel down. The pending table is abandoned, not
// drained; waiters unblock through the done signal with ErrClosed.
func (s *session) shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.peer.Close() //nolint:errcheck // Teardown is best effort
}

// The typed operation surface shared by Controller and Tx.

func (s *session) execute(ctx context.Context, sql string, params []any) error {
	_, err := s.call(ctx, protocol.Request{Kind: protocol.KindExecute, SQL: sql, Params: params})
	return err
}

func (s *session) query(ctx context.Context, sql string, params []any) ([]Row, error) {
	res, err := s.call(ctx, protocol.Request{Kind: protocol.KindQuery, SQL: sql, Params: params})
	if err != nil {
		return nil, err
	}
	return protocol.Rows(res)
}

func (s *session) run(ctx context.Context, sql string, params []any) (RunMeta, error) {
	res, err := s.call(ctx, protocol.Request{Kind: protocol.KindRun, SQL: sql, Params: params})
	if err != nil {
		return RunMeta{}, err
	}
	meta, err := protocol.Meta(res)
	if err != nil {
		return RunMeta{}, err
	}
	return RunMeta{LastInsertRowID: meta.LastInsertRowID, Changes: meta.Changes}, nil
}
