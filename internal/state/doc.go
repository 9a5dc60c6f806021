// Package state holds the client's data model and the event reducer
// that is the only place the model is mutated.
//
// Events form a closed union (see Event); transport callbacks and
// application code produce them, and the Store consumes them one at a
// time on a single goroutine. The reducer reports whether a transition
// warrants a re-render (Render) or not (Skip).
//
// The model owns the transport handle and every callback handle
// registered on it for the current connection generation; both are
// released together when a Disconnected event is applied.
package state
