package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/litebridge/litebridge/internal/channel"
	"github.com/litebridge/litebridge/internal/protocol"
)

// responseBuffer is the inbound response buffer of a dialed channel.
const responseBuffer = 64

// Dial connects to a remote executor endpoint and returns the
// controller-facing end of the channel. http/https URLs are accepted and
// rewritten to their websocket schemes.
func Dial(ctx context.Context, url string) (channel.Peer, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL(url), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing executor endpoint: %w", err)
	}
	p := &wsPeer{
		conn:      conn,
		responses: make(chan protocol.Response, responseBuffer),
		done:      make(chan struct{}),
	}
	go p.readLoop()
	return p, nil
}

func wsURL(url string) string {
	switch {
	case strings.HasPrefix(url, "https://"):
		return "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		return "ws://" + strings.TrimPrefix(url, "http://")
	default:
		return url
	}
}

// wsPeer adapts one websocket connection to the channel.Peer contract.
type wsPeer struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	responses chan protocol.Response
	done      chan struct{}
	closeOnce sync.Once
}

// wireResponse defers results decoding: the peer cannot know a response's
// originating kind, so results stay raw JSON for the controller to coerce.
type wireResponse struct {
	ID      uint64          `json:"id"`
	Status  protocol.Status `json:"status"`
	Results json.RawMessage `json:"results,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (p *wsPeer) Send(req protocol.Request) error {
	select {
	case <-p.done:
		return channel.ErrClosed
	default:
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.conn.WriteJSON(req); err != nil {
		p.teardown()
		return channel.ErrClosed
	}
	return nil
}

func (p *wsPeer) readLoop() {
	defer p.teardown()
	for {
		var raw wireResponse
		if err := p.conn.ReadJSON(&raw); err != nil {
			return
		}
		res := protocol.Response{ID: raw.ID, Status: raw.Status, Error: raw.Error}
		if len(raw.Results) > 0 {
			res.Results = raw.Results
		}
		select {
		case p.responses <- res:
		case <-p.done:
			return
		}
	}
}

func (p *wsPeer) teardown() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.conn.Close() //nolint:errcheck // Teardown is best effort
	})
}

func (p *wsPeer) Responses() <-chan protocol.Response { return p.responses }
func (p *wsPeer) Done() <-chan struct{}               { return p.done }
func (p *wsPeer) Close() error {
	p.teardown()
	return nil
}

var _ channel.Peer = (*wsPeer)(nil)
