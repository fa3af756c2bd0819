package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
)

const defaultHandshakeTimeout = 10 * time.Second

// WebsocketTransport dials the gateway websocket endpoint and exchanges
// JSON frames over it. A single reader is assumed; writes are serialized
// with a mutex because the session and its teardown path both write.
type WebsocketTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWebsocketTransport() *WebsocketTransport {
	return &WebsocketTransport{}
}

func (t *WebsocketTransport) Name() string {
	return "websocket"
}

func (t *WebsocketTransport) Dial(ctx context.Context, opts Options) error {
	endpoint, err := url.Parse(opts.Path)
	if err != nil {
		return fmt.Errorf("bad transport path %q: %w", opts.Path, err)
	}
	query := endpoint.Query()
	query.Set("user_id", opts.UserID)
	query.Set("token", opts.Token)
	endpoint.RawQuery = query.Encode()

	handshake := opts.Timeout
	if handshake <= 0 {
		handshake = defaultHandshakeTimeout
	}
	dialer := websocket.Dialer{HandshakeTimeout: handshake}

	conn, resp, err := dialer.DialContext(ctx, endpoint.String(), http.Header{})
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial %s: status %d: %w", opts.Path, resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial %s: %w", opts.Path, err)
	}

	t.mu.Lock()
	if t.conn != nil {
		_ = t.conn.Close()
	}
	t.conn = conn
	t.mu.Unlock()
	return nil
}

// ReadFrame blocks until a frame arrives, the context deadline passes,
// or the connection is closed. Cancellation without a deadline is
// delivered by closing the transport.
func (t *WebsocketTransport) ReadFrame(ctx context.Context) (Frame, error) {
	conn := t.current()
	if conn == nil {
		return Frame{}, fmt.Errorf("websocket is not connected")
	}

	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return Frame{}, err
	}

	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		if ctx.Err() != nil {
			return Frame{}, ctx.Err()
		}
		return Frame{}, err
	}
	return f, nil
}

func (t *WebsocketTransport) WriteFrame(ctx context.Context, f Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return fmt.Errorf("websocket is not connected")
	}

	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return t.conn.WriteJSON(f)
}

func (t *WebsocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *WebsocketTransport) current() *websocket.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}
