package state

import (
	"fmt"

	"github.com/dmerrick/chatwire/internal/protocol"
)

// Effect tells the Store what to do after a transition.
type Effect int

const (
	// Skip means the transition does not warrant a re-render.
	Skip Effect = iota

	// Render means observers should see the new model.
	Render
)

// String returns the string representation of the effect.
func (e Effect) String() string {
	switch e {
	case Skip:
		return "Skip"
	case Render:
		return "Render"
	default:
		return "Unknown"
	}
}

// Apply computes the next model and effect for one event.
//
// The returned error is non-nil only for a transport send failure, which
// the current design does not recover from; the Store escalates it.
// TODO: decide whether a failed send should instead feed back a
// Disconnected event.
func Apply(m Model, ev Event) (Model, Effect, error) {
	switch ev := ev.(type) {
	case Connected:
		m.Network.Connected = true
		return m, Render, nil

	case Disconnected:
		for _, h := range m.Network.Callbacks {
			h.Release()
		}
		if m.Network.Transport != nil {
			m.Network.Transport.Close()
		}
		m.Network.Connected = false
		m.Network.Transport = nil
		m.Network.Callbacks = nil
		return m, Render, nil

	case NewTransport:
		m.Network.Transport = ev.Transport
		return m, Render, nil

	case NewCallback:
		m.Network.Callbacks = appendCopied(m.Network.Callbacks, ev.Handle)
		return m, Skip, nil

	case SendRequest:
		if m.Network.Transport == nil {
			return m, Skip, nil
		}
		data, err := protocol.EncodeRequest(ev.Request)
		if err != nil {
			return m, Skip, fmt.Errorf("encode request: %w", err)
		}
		if err := m.Network.Transport.Send(data); err != nil {
			return m, Skip, fmt.Errorf("send request: %w", err)
		}
		m.PendingInput = ""
		m.SentCount++
		return m, Render, nil

	case MessageReceived:
		m.RecvCount++
		m.History = appendCopied(m.History, ev.Response)
		return m, Render, nil

	default:
		// The union is closed; an unknown event is a programming error.
		return m, Skip, fmt.Errorf("unknown event type %T", ev)
	}
}

// appendCopied appends onto a fresh backing array. A plain append could
// reuse spare capacity shared with a previously returned model, letting
// one snapshot's transition show up in another.
func appendCopied[T any](s []T, v T) []T {
	next := make([]T, len(s), len(s)+1)
	copy(next, s)
	return append(next, v)
}
