package protocol

import "errors"

// Frame constants.
const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 4

	// MaxPayloadSize is the maximum payload size (2^16 - 1 bytes).
	MaxPayloadSize = 65535
)

// FrameType identifies the kind of frame.
type FrameType uint8

const (
	FrameRequest  FrameType = 0x01 // Client → Server chat message
	FrameResponse FrameType = 0x02 // Server → Client broadcast
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameRequest:
		return "Request"
	case FrameResponse:
		return "Response"
	default:
		return "Unknown"
	}
}

// FrameFlags are reserved for future use. All current frames carry zero.
type FrameFlags uint8

// Codec errors.
var (
	ErrShortFrame    = errors.New("protocol: frame shorter than header")
	ErrBadFrameType  = errors.New("protocol: unexpected frame type")
	ErrPayloadLength = errors.New("protocol: payload length does not match header")
	ErrTruncated     = errors.New("protocol: truncated field")
	ErrTrailingData  = errors.New("protocol: trailing bytes after payload")
	ErrOverflow      = errors.New("protocol: varint overflow")
	ErrFrameTooLarge = errors.New("protocol: payload exceeds MaxPayloadSize")
)

// header encodes the 4-byte frame header for a payload of the given
// length. The caller must have checked the length against MaxPayloadSize;
// anything larger would wrap the 16-bit length field.
func header(ft FrameType, payloadLen int) []byte {
	return []byte{byte(ft), 0, byte(payloadLen >> 8), byte(payloadLen)}
}

// splitFrame validates the header and returns the frame type and payload.
func splitFrame(data []byte) (FrameType, []byte, error) {
	if len(data) < FrameHeaderSize {
		return 0, nil, ErrShortFrame
	}
	ft := FrameType(data[0])
	length := int(data[2])<<8 | int(data[3])
	if len(data) != FrameHeaderSize+length {
		return 0, nil, ErrPayloadLength
	}
	return ft, data[FrameHeaderSize:], nil
}
