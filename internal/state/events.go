package state

import "github.com/dmerrick/chatwire/internal/protocol"

// Event is the closed union of everything the reducer handles. Each
// event is produced once, by a transport callback or by application
// code, and consumed exactly once.
type Event interface {
	isEvent()
}

// Connected reports that the transport's open callback fired.
type Connected struct{}

// Disconnected reports that the transport closed or errored. The two
// are deliberately collapsed: there is no distinct error state.
// Level-triggered; applying it to an already-disconnected model is a
// no-op that still clears any stale references.
type Disconnected struct{}

// NewTransport records a freshly constructed transport handle. Published
// before any of its callbacks can fire.
type NewTransport struct {
	Transport Transport
}

// NewCallback transfers ownership of a registered callback to the model.
type NewCallback struct {
	Handle Handle
}

// SendRequest asks for one request frame to be encoded and transmitted.
type SendRequest struct {
	Request protocol.RequestFrame
}

// MessageReceived carries one decoded server broadcast.
type MessageReceived struct {
	Response protocol.ResponseFrame
}

func (Connected) isEvent()       {}
func (Disconnected) isEvent()    {}
func (NewTransport) isEvent()    {}
func (NewCallback) isEvent()     {}
func (SendRequest) isEvent()     {}
func (MessageReceived) isEvent() {}
