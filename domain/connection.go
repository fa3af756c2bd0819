package domain

// ConnectionState describes the realtime link of a client session.
// Transitions are driven by transport events and owned exclusively by
// the session manager; no other component sets the state directly.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateError        ConnectionState = "error"
)
