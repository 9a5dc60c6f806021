package connection

import (
	"errors"
	"time"
)

// ErrNotConnected is returned by Send before the dial completes or after
// the connection drops.
var ErrNotConnected = errors.New("not connected")

// TransportConfig configures a single WebSocket transport.
type TransportConfig struct {
	URL              string        // WebSocket URL (e.g., ws://127.0.0.1:8080/ws/)
	HandshakeTimeout time.Duration // Dial handshake deadline
	WriteTimeout     time.Duration // Write deadline for sends
}

// DefaultTransportConfig returns sensible defaults.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	URL              string        // Server endpoint
	HandshakeTimeout time.Duration // Dial handshake deadline
	WriteTimeout     time.Duration // Write deadline for sends
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		URL:              "ws://127.0.0.1:8080/ws/",
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}
