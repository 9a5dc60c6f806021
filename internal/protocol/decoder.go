package protocol

import "github.com/google/uuid"

// maxVarintLen is the maximum number of bytes a uint64 varint can occupy.
const maxVarintLen = 10

// decoder reads wire-format fields from a payload.
// Every read checks remaining length; malformed input yields an error,
// never a panic.
type decoder struct {
	buf []byte
	pos int
}

func newDecoder(payload []byte) *decoder {
	return &decoder{buf: payload}
}

// remaining returns the number of unread bytes.
func (d *decoder) remaining() int {
	return len(d.buf) - d.pos
}

func (d *decoder) readUvarint() (uint64, error) {
	var v uint64
	var shift uint

	for i := 0; ; i++ {
		if i >= maxVarintLen {
			return 0, ErrOverflow
		}
		if d.pos >= len(d.buf) {
			return 0, ErrTruncated
		}
		b := d.buf[d.pos]
		d.pos++
		v |= uint64(b&0x7F) << shift
		if b < 0x80 {
			return v, nil
		}
		shift += 7
	}
}

func (d *decoder) readString() (string, error) {
	n, err := d.readUvarint()
	if err != nil {
		return "", err
	}
	if n > uint64(d.remaining()) {
		return "", ErrTruncated
	}
	s := string(d.buf[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s, nil
}

func (d *decoder) readUUID() (uuid.UUID, error) {
	var id uuid.UUID
	if d.remaining() < len(id) {
		return uuid.UUID{}, ErrTruncated
	}
	copy(id[:], d.buf[d.pos:])
	d.pos += len(id)
	return id, nil
}
