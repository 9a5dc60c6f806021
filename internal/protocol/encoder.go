package protocol

import "github.com/google/uuid"

// encoder appends wire-format fields to an internal buffer. Appends
// cannot fail; the size check against MaxPayloadSize happens once the
// full payload is assembled.
type encoder struct {
	buf []byte
}

func newEncoder() *encoder {
	return &encoder{buf: make([]byte, 0, 128)}
}

func (e *encoder) bytes() []byte {
	return e.buf
}

// writeUvarint appends an unsigned varint (7 bits per byte, MSB continues).
func (e *encoder) writeUvarint(v uint64) {
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}

// writeString appends a varint length prefix followed by the string bytes.
func (e *encoder) writeString(s string) {
	e.writeUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// writeUUID appends the raw 16 bytes of a UUID.
func (e *encoder) writeUUID(id uuid.UUID) {
	e.buf = append(e.buf, id[:]...)
}
