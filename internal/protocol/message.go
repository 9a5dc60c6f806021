package protocol

import "github.com/google/uuid"

// RequestFrame is one outgoing chat message.
type RequestFrame struct {
	ID       uuid.UUID // Client-assigned message ID
	SentAtMs int64     // Client wall clock, milliseconds since epoch
	Body     string
}

// ResponseFrame is one broadcast chat message from the server.
type ResponseFrame struct {
	ID         uuid.UUID // Message ID, echoed for the sender's own messages
	ServerTsMs int64     // Server wall clock, milliseconds since epoch
	Sender     string
	Body       string
}

// EncodeRequest encodes a request frame including the header. Returns
// ErrFrameTooLarge when the encoded payload would exceed MaxPayloadSize;
// this is the only failure mode.
func EncodeRequest(req RequestFrame) ([]byte, error) {
	e := newEncoder()
	e.writeUUID(req.ID)
	e.writeUvarint(uint64(req.SentAtMs))
	e.writeString(req.Body)

	payload := e.bytes()
	if len(payload) > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	return append(header(FrameRequest, len(payload)), payload...), nil
}

// DecodeRequest decodes a request frame, the server-side mirror of
// EncodeRequest.
func DecodeRequest(data []byte) (*RequestFrame, error) {
	ft, payload, err := splitFrame(data)
	if err != nil {
		return nil, err
	}
	if ft != FrameRequest {
		return nil, ErrBadFrameType
	}

	d := newDecoder(payload)
	var req RequestFrame
	if req.ID, err = d.readUUID(); err != nil {
		return nil, err
	}
	sentAt, err := d.readUvarint()
	if err != nil {
		return nil, err
	}
	req.SentAtMs = int64(sentAt)
	if req.Body, err = d.readString(); err != nil {
		return nil, err
	}
	if d.remaining() != 0 {
		return nil, ErrTrailingData
	}
	return &req, nil
}

// EncodeResponse encodes a response frame including the header. Returns
// ErrFrameTooLarge when the encoded payload would exceed MaxPayloadSize.
func EncodeResponse(resp ResponseFrame) ([]byte, error) {
	e := newEncoder()
	e.writeUUID(resp.ID)
	e.writeUvarint(uint64(resp.ServerTsMs))
	e.writeString(resp.Sender)
	e.writeString(resp.Body)

	payload := e.bytes()
	if len(payload) > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	return append(header(FrameResponse, len(payload)), payload...), nil
}

// DecodeResponse decodes a response frame. Malformed input is rejected
// with one of the package's typed errors.
func DecodeResponse(data []byte) (*ResponseFrame, error) {
	ft, payload, err := splitFrame(data)
	if err != nil {
		return nil, err
	}
	if ft != FrameResponse {
		return nil, ErrBadFrameType
	}

	d := newDecoder(payload)
	var resp ResponseFrame
	if resp.ID, err = d.readUUID(); err != nil {
		return nil, err
	}
	serverTs, err := d.readUvarint()
	if err != nil {
		return nil, err
	}
	resp.ServerTsMs = int64(serverTs)
	if resp.Sender, err = d.readString(); err != nil {
		return nil, err
	}
	if resp.Body, err = d.readString(); err != nil {
		return nil, err
	}
	if d.remaining() != 0 {
		return nil, ErrTrailingData
	}
	return &resp, nil
}
