//go:generate go run go.uber.org/mock/mockgen -source=transport.go -destination=../mocks/mock_transport.go -package=mocks
// Package transport is the realtime boundary between a client session
// and the gateway. It moves frames; it has no chat semantics.
package transport

import (
	"context"
	"time"
)

// Options configure a client connection attempt and the automatic
// reconnection behaviour of the session that owns it.
type Options struct {
	// Path is the websocket endpoint, e.g. "ws://localhost:3000/api/ws".
	Path string
	// UserID authenticates the connection. It must match the identity
	// encoded in Token; the gateway closes mismatched connections.
	UserID string
	// Token is the signed credential issued by the auth collaborator.
	Token string

	Reconnection         bool
	ReconnectionAttempts int
	ReconnectionDelay    time.Duration

	// Transports lists preferred mechanisms in order. Only "websocket"
	// is implemented; the list is kept for wire-option compatibility.
	Transports      []string
	WithCredentials bool
	AutoConnect     bool
	Timeout         time.Duration
}

// Transport is a single bidirectional frame channel. Implementations
// must allow Close to unblock a pending ReadFrame.
type Transport interface {
	Dial(ctx context.Context, opts Options) error
	ReadFrame(ctx context.Context) (Frame, error)
	WriteFrame(ctx context.Context, f Frame) error
	Close() error
	Name() string
}
