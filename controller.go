package litebridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/litebridge/litebridge/internal/channel"
	"github.com/litebridge/litebridge/internal/executor"
	"github.com/litebridge/litebridge/internal/logging"
	"github.com/litebridge/litebridge/internal/protocol"
	"github.com/litebridge/litebridge/remote"
)

// Controller is the caller-facing side of the façade.
//
// All operations are asynchronous request/response exchanges with the
// executor; each suspends its caller until the correlated response arrives.
// Readiness is implicit — any data operation triggers it — and survives
// Close: the next operation starts a fresh executor.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - The executor serializes operations, so concurrent callers interleave
//     at statement granularity. Transaction serialisation across callers is
//     the caller's responsibility.
type Controller struct {
	cfg     Config
	logger  *logging.Logger
	connect func(ctx context.Context) (channel.Peer, error)

	mu    sync.Mutex
	sess  *session // non-nil once Ready succeeded, nil after Close/Delete
	start *startup // non-nil while a Ready attempt is in flight
}

// startup is one in-flight Ready attempt, shared by concurrent callers so
// only a single executor is ever started and a single open request sent.
type startup struct {
	done chan struct{}
	err  error
}

// New creates a Controller for the given configuration. No executor is
// started and nothing is opened until Ready or the first data operation.
func New(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.New(cfg.loggingConfig()).With("component", "controller")

	c := &Controller{cfg: cfg, logger: logger}
	if cfg.Worker.URL != "" {
		url := cfg.Worker.URL
		c.connect = func(ctx context.Context) (channel.Peer, error) {
			return remote.Dial(ctx, url)
		}
	} else {
		execLogger := logging.New(cfg.loggingConfig())
		c.connect = func(context.Context) (channel.Peer, error) {
			peer, host := channel.NewPipe()
			go executor.New(host, executor.Options{Logger: execLogger}).Run()
			return peer, nil
		}
	}
	return c, nil
}

// Ready starts the executor, initializes the storage backend and opens the
// database. It is idempotent: once ready it returns immediately, and
// concurrent callers before first completion share one outcome. On failure
// the controller is left usable for a retry.
func (c *Controller) Ready(ctx context.Context) error {
	c.mu.Lock()
	if c.sess != nil {
		c.mu.Unlock()
		return nil
	}
	if c.start != nil {
		st := c.start
		c.mu.Unlock()
		select {
		case <-st.done:
			return st.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	st := &startup{done: make(chan struct{})}
	c.start = st
	c.mu.Unlock()

	sess, err := c.openSession(ctx)

	c.mu.Lock()
	c.start = nil
	st.err = err
	if err == nil {
		c.sess = sess
	}
	c.mu.Unlock()
	close(st.done)
	return err
}

// openSession performs the startup sequence: connect the channel, await the
// executor's ready handshake, then send the initialize and open pair.
func (c *Controller) openSession(ctx context.Context) (*session, error) {
	peer, err := c.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting executor: %w", err)
	}
	s := newSession(peer, c.logger)

	if err := s.awaitReady(ctx); err != nil {
		s.shutdown()
		return nil, fmt.Errorf("awaiting executor handshake: %w", err)
	}
	if _, err := s.call(ctx, protocol.Request{Kind: protocol.KindInitialize, Config: c.cfg.engineConfig()}); err != nil {
		s.shutdown()
		return nil, fmt.Errorf("initializing executor: %w", err)
	}
	if _, err := s.call(ctx, protocol.Request{Kind: protocol.KindOpen, Filename: c.cfg.Filename}); err != nil {
		s.shutdown()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	c.logger.Debug("session established", "filename", c.cfg.Filename)
	return s, nil
}

// session ensures readiness and returns the live session. A Close racing in
// between surfaces as ErrClosed, never as a hang.
func (c *Controller) session(ctx context.Context) (*session, error) {
	if err := c.Ready(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return nil, ErrClosed
	}
	return s, nil
}

// Execute sends a statement and discards any rows it produces. Any
// non-empty statement is legal; engine errors propagate verbatim.
func (c *Controller) Execute(ctx context.Context, sql string, params ...any) error {
	s, err := c.session(ctx)
	if err != nil {
		return err
	}
	return s.execute(ctx, sql, params)
}

// Query sends a statement and resolves with every produced row, in engine
// emission order.
func (c *Controller) Query(ctx context.Context, sql string, params ...any) ([]Row, error) {
	s, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, sql, params)
}

// Run is Execute plus metadata readback: the change count and, when rows
// changed, the last insert id.
func (c *Controller) Run(ctx context.Context, sql string, params ...any) (RunMeta, error) {
	s, err := c.session(ctx)
	if err != nil {
		return RunMeta{}, err
	}
	return s.run(ctx, sql, params)
}

// Export resolves with the full database serialized as a binary snapshot.
// The selected backend must support snapshot export; a pure in-memory
// backend rejects with ErrUnsupported.
func (c *Controller) Export(ctx context.Context) ([]byte, error) {
	s, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.call(ctx, protocol.Request{Kind: protocol.KindExport})
	if err != nil {
		return nil, err
	}
	return protocol.Blob(res)
}

// Import loads a binary database snapshot into storage under the given
// name. The backend must support import, and the currently open database
// cannot be replaced underneath its connection.
func (c *Controller) Import(ctx context.Context, filename string, data []byte) error {
	s, err := c.session(ctx)
	if err != nil {
		return err
	}
	_, err = s.call(ctx, protocol.Request{Kind: protocol.KindImport, Filename: filename, Data: data})
	return err
}

// Close sends a close request, then unconditionally tears down the executor
// and resets readiness, regardless of the request's outcome. When the
// controller was never ready it is a no-op. Subsequent data operations
// re-run readiness and open a fresh connection.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	s := c.sess
	c.sess = nil
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	_, err := s.call(ctx, protocol.Request{Kind: protocol.KindClose})
	s.shutdown()
	return err
}

// Delete ensures readiness, closes the connection and wipes the backend's
// persisted files entirely, then tears down the executor and resets
// readiness. The pool may hold data from a prior session, which is exactly
// what Delete is for.
func (c *Controller) Delete(ctx context.Context) error {
	if err := c.Ready(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	s := c.sess
	c.sess = nil
	c.mu.Unlock()
	if s == nil {
		return ErrClosed
	}
	_, err := s.call(ctx, protocol.Request{Kind: protocol.KindDelete})
	s.shutdown()
	return err
}
