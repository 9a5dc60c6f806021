package state

import (
	"github.com/google/uuid"

	"github.com/dmerrick/chatwire/internal/protocol"
)

// Transport is the subset of the connection transport the reducer needs.
// The full contract lives in internal/connection.
type Transport interface {
	// Send transmits one binary frame.
	Send(data []byte) error

	// Close releases the underlying connection. Must be idempotent.
	Close() error
}

// Handle is a registered transport callback, owned by the model from
// creation until release on disconnect.
type Handle struct {
	ID         uuid.UUID // Callback identity
	Generation uuid.UUID // Connection generation this callback belongs to

	release func()
}

// NewHandle creates a handle for a registered callback. The release
// function unregisters the callback from its transport; nil is allowed.
func NewHandle(generation uuid.UUID, release func()) Handle {
	return Handle{
		ID:         uuid.New(),
		Generation: generation,
		release:    release,
	}
}

// Release unregisters the callback. Safe to call on a zero handle.
func (h Handle) Release() {
	if h.release != nil {
		h.release()
	}
}

// NetworkState is the connection-related slice of the model.
type NetworkState struct {
	// Connected is true only between the open callback firing and any
	// close or error callback.
	Connected bool

	// Transport is the live transport handle. Presence does not imply
	// liveness: it is set before the open callback fires and may outlive
	// an error until disconnect handling clears it.
	Transport Transport

	// Callbacks owns every callback registered on Transport, in
	// registration order. Cleared together with Transport.
	Callbacks []Handle
}

// Model is the application state owned by the Store.
type Model struct {
	Network NetworkState

	// PendingInput is the not-yet-sent message body, cleared on send.
	PendingInput string

	// SentCount is the number of requests transmitted this session.
	SentCount int

	// RecvCount is the number of decoded server broadcasts.
	RecvCount int

	// History holds decoded server broadcasts in arrival order.
	History []protocol.ResponseFrame
}

// NewModel returns the initial model: disconnected, no transport,
// no callbacks.
func NewModel() Model {
	return Model{}
}
