package main

import "time"

// Config defines the client-side environment variables.
type Config struct {
	GatewayURL           string        `envconfig:"GATEWAY_URL" default:"http://localhost:8080"`
	WebsocketURL         string        `envconfig:"WEBSOCKET_URL" default:"ws://localhost:8080/api/ws"`
	Handle               string        `envconfig:"TREKCHAT_HANDLE" required:"true"`
	Token                string        `envconfig:"TREKCHAT_TOKEN" required:"true"`
	Peer                 string        `envconfig:"TREKCHAT_PEER" required:"true"`
	Reconnection         bool          `envconfig:"RECONNECTION" default:"true"`
	ReconnectionAttempts int           `envconfig:"RECONNECTION_ATTEMPTS" default:"5"`
	ReconnectionDelay    time.Duration `envconfig:"RECONNECTION_DELAY" default:"2s"`
	RequestTimeout       time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	LogLevel             string        `envconfig:"LOG_LEVEL" default:"info"`
}
