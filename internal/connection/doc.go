// Package connection implements the transport and the Connection Manager.
//
// The Connection Manager:
//   - Opens one WebSocket transport per Open call (no dedupe)
//   - Publishes the transport to the store before any callback can fire
//   - Wires the four lifecycle callbacks (open, close, error, message)
//     and hands ownership of each to the store as a NewCallback event
//   - Decodes inbound binary frames, dropping malformed ones with a log
//
// There is no reconnection, backoff, or multiplexing here: a disconnect
// resets the model to an idle state and a fresh Open must be triggered
// externally.
package connection
