package executor

import (
	"github.com/litebridge/litebridge/internal/channel"
	"github.com/litebridge/litebridge/internal/engine"
	"github.com/litebridge/litebridge/internal/logging"
	"github.com/litebridge/litebridge/internal/protocol"
	"github.com/litebridge/litebridge/internal/storage"
)

// Options configures an executor instance.
type Options struct {
	// Logger receives the executor's structured log output. The executor
	// always installs its own logger; log sinks never arrive over the
	// channel. Defaults to logging.Default().
	Logger *logging.Logger

	// Origin, when non-empty, is the only origin inbound messages may
	// carry. Messages with a different origin are answered with an error
	// response and otherwise ignored. Empty disables verification, which is
	// the in-process case where no origin information exists.
	Origin string
}

// Executor answers operation requests from the host end of a channel.
// Create one with New and drive it with Run, usually on its own goroutine.
type Executor struct {
	host   channel.Host
	logger *logging.Logger
	origin string

	// Connection state. Only the Run goroutine touches it.
	state connState
}

// connState is everything a live connection consists of. The zero value is
// "not initialized"; close and delete reset it to that.
type connState struct {
	backend  storage.Backend
	eng      *engine.Engine
	cfg      protocol.EngineConfig
	filename string
}

func (s *connState) initialized() bool { return s.backend != nil }
func (s *connState) open() bool        { return s.eng != nil }

// New creates an executor bound to the host end of a channel.
func New(host channel.Host, opts Options) *Executor {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Executor{
		host:   host,
		logger: logger.With("component", "executor"),
		origin: opts.Origin,
	}
}

// Run announces readiness, then serves requests until the channel is torn
// down. It blocks; run it on a dedicated goroutine.
func (e *Executor) Run() {
	e.send(protocol.ReadyResponse())
	for {
		select {
		case <-e.host.Done():
			e.shutdown()
			return
		case req := <-e.host.Requests():
			e.send(e.dispatch(req))
		}
	}
}

// send delivers a response, tolerating a channel torn down underneath us.
func (e *Executor) send(res protocol.Response) {
	if err := e.host.Send(res); err != nil {
		e.logger.Debug("response dropped, channel closed", "id", res.ID)
	}
}

// shutdown releases the connection state when the channel goes away without
// an orderly close request.
func (e *Executor) shutdown() {
	if e.state.open() {
		if err := e.state.eng.Close(); err != nil {
			e.logger.Warn("closing engine on shutdown", "error", err)
		}
	}
	if e.state.initialized() {
		if err := e.state.backend.Close(); err != nil {
			e.logger.Warn("closing backend on shutdown", "error", err)
		}
	}
	e.state = connState{}
}
