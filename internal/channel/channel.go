package channel

import (
	"errors"

	"github.com/litebridge/litebridge/internal/protocol"
)

// ErrClosed is returned by Send on either end after the channel has been
// torn down.
var ErrClosed = errors.New("channel: closed")

// Peer is the controller-facing end of a channel.
type Peer interface {
	// Send delivers one request to the executor side. It fails with
	// ErrClosed after teardown and never blocks indefinitely against a
	// closed channel.
	Send(req protocol.Request) error

	// Responses yields responses in the order the executor sent them. The
	// channel is never closed; select against Done for teardown.
	Responses() <-chan protocol.Response

	// Done is closed when the channel is torn down, from either end.
	Done() <-chan struct{}

	// Close tears the channel down. Idempotent.
	Close() error
}

// Host is the executor-facing end of a channel.
type Host interface {
	// Requests yields requests in the order the controller sent them.
	Requests() <-chan protocol.Request

	// Send delivers one response to the controller side.
	Send(res protocol.Response) error

	// Done is closed when the channel is torn down, from either end.
	Done() <-chan struct{}

	// Close tears the channel down. Idempotent.
	Close() error
}
