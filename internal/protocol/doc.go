// Package protocol implements the binary wire format exchanged with the
// chat server.
//
// Two frame kinds exist:
//   - Request: client → server, one outgoing chat message
//   - Response: server → client, one broadcast chat message
//
// Every frame is a 4-byte header followed by the payload:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// Payload fields use protobuf-style unsigned varints for integers and
// varint length prefixes for strings. Message IDs are raw 16-byte UUIDs.
//
// Both directions are bounded by MaxPayloadSize: encoding rejects a
// payload the 16-bit length field cannot represent, and decoding is
// defensive, rejecting any malformed, truncated, or oversized input
// with a typed error rather than panicking.
package protocol
