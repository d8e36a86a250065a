package channel

import (
	"sync"

	"github.com/litebridge/litebridge/internal/protocol"
)

// defaultBuffer is the per-direction message buffer of an in-process pipe.
// Callers that pipeline more outstanding requests than this will block in
// Send until the executor catches up, which preserves ordering either way.
const defaultBuffer = 64

// pipe is the in-process channel implementation: two buffered Go channels
// and a shared teardown signal. Values pass by copy, matching the
// no-shared-memory rule of the boundary.
type pipe struct {
	requests  chan protocol.Request
	responses chan protocol.Response
	done      chan struct{}
	closeOnce sync.Once
}

type peerEnd struct{ *pipe }

type hostEnd struct{ *pipe }

// NewPipe creates a connected in-process channel and returns its two ends.
func NewPipe() (Peer, Host) {
	p := &pipe{
		requests:  make(chan protocol.Request, defaultBuffer),
		responses: make(chan protocol.Response, defaultBuffer),
		done:      make(chan struct{}),
	}
	return peerEnd{p}, hostEnd{p}
}

func (p *pipe) close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

func (e peerEnd) Send(req protocol.Request) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	select {
	case e.requests <- req:
		return nil
	case <-e.done:
		return ErrClosed
	}
}

func (e peerEnd) Responses() <-chan protocol.Response { return e.responses }
func (e peerEnd) Done() <-chan struct{}               { return e.done }
func (e peerEnd) Close() error                        { return e.close() }

func (e hostEnd) Send(res protocol.Response) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	select {
	case e.responses <- res:
		return nil
	case <-e.done:
		return ErrClosed
	}
}

func (e hostEnd) Requests() <-chan protocol.Request { return e.requests }
func (e hostEnd) Done() <-chan struct{}             { return e.done }
func (e hostEnd) Close() error                      { return e.close() }
