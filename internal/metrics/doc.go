// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Connection state (up/down)
//   - Messages sent and received
//   - Inbound frames dropped, by reason
//   - Archive batch inserts and errors
package metrics
