// Package channel provides the ordered, asynchronous message link between
// the controller and the executor.
//
// A channel has two ends. The Peer end belongs to the controller: it sends
// requests and receives responses. The Host end belongs to the executor: it
// receives requests and sends responses. There is no shared memory between
// the two sides and no blocking call from one into the other; each end only
// ever touches its own half.
//
// Ordering: messages sent on one end are delivered to the other end in send
// order. The in-process Pipe gets this from Go channel semantics; remote
// implementations must provide the same guarantee (a single TCP-backed
// websocket does).
//
// Closing either end tears the whole channel down. Sends after teardown
// fail fast with ErrClosed rather than blocking, so a request racing a
// close never hangs.
package channel
