package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func mustEncodeRequest(t *testing.T, req RequestFrame) []byte {
	t.Helper()
	data, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}
	return data
}

func mustEncodeResponse(t *testing.T, resp ResponseFrame) []byte {
	t.Helper()
	data, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}
	return data
}

func TestRequest_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		req  RequestFrame
	}{
		{
			name: "basic",
			req: RequestFrame{
				ID:       uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"),
				SentAtMs: 1705320000123,
				Body:     "hello, room",
			},
		},
		{
			name: "empty body",
			req: RequestFrame{
				ID:       uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"),
				SentAtMs: 0,
			},
		},
		{
			name: "multibyte body",
			req: RequestFrame{
				ID:       uuid.MustParse("00000000-0000-0000-0000-000000000001"),
				SentAtMs: 1,
				Body:     "héllo 世界",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := mustEncodeRequest(t, tt.req)

			got, err := DecodeRequest(data)
			if err != nil {
				t.Fatalf("DecodeRequest failed: %v", err)
			}
			if *got != tt.req {
				t.Errorf("round trip = %+v, want %+v", *got, tt.req)
			}
		})
	}
}

func TestResponse_RoundTrip(t *testing.T) {
	resp := ResponseFrame{
		ID:         uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"),
		ServerTsMs: 1705320000456,
		Sender:     "alice",
		Body:       "hi back",
	}

	data := mustEncodeResponse(t, resp)

	got, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if *got != resp {
		t.Errorf("round trip = %+v, want %+v", *got, resp)
	}
}

func TestEncodeRequest_Header(t *testing.T) {
	req := RequestFrame{ID: uuid.New(), SentAtMs: 42, Body: "x"}
	data := mustEncodeRequest(t, req)

	if data[0] != byte(FrameRequest) {
		t.Errorf("frame type = %#x, want %#x", data[0], byte(FrameRequest))
	}
	if data[1] != 0 {
		t.Errorf("flags = %#x, want 0", data[1])
	}
	length := int(data[2])<<8 | int(data[3])
	if length != len(data)-FrameHeaderSize {
		t.Errorf("header length = %d, payload length = %d", length, len(data)-FrameHeaderSize)
	}
}

func TestDecodeResponse_Malformed(t *testing.T) {
	valid := mustEncodeResponse(t, ResponseFrame{
		ID:         uuid.New(),
		ServerTsMs: 1705320000456,
		Sender:     "alice",
		Body:       "hi",
	})

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{
			name:    "empty",
			data:    nil,
			wantErr: ErrShortFrame,
		},
		{
			name:    "header only prefix",
			data:    valid[:2],
			wantErr: ErrShortFrame,
		},
		{
			name:    "wrong frame type",
			data:    mustEncodeRequest(t, RequestFrame{ID: uuid.New(), Body: "hi"}),
			wantErr: ErrBadFrameType,
		},
		{
			name:    "length mismatch",
			data:    valid[:len(valid)-1],
			wantErr: ErrPayloadLength,
		},
		{
			name:    "trailing bytes inside payload",
			data:    withPayload(FrameResponse, append(payloadOf(valid), 0xFF)),
			wantErr: ErrTrailingData,
		},
		{
			name:    "garbage payload",
			data:    withPayload(FrameResponse, []byte{0x01, 0x02}),
			wantErr: ErrTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResponse(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeResponse error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestDecodeResponse_Truncations feeds every prefix of a valid frame to the
// decoder; none may round trip and none may panic.
func TestDecodeResponse_Truncations(t *testing.T) {
	valid := mustEncodeResponse(t, ResponseFrame{
		ID:         uuid.New(),
		ServerTsMs: 1705320000456,
		Sender:     "alice",
		Body:       "a longer message body to truncate",
	})

	for i := 0; i < len(valid); i++ {
		if _, err := DecodeResponse(valid[:i]); err == nil {
			t.Errorf("DecodeResponse accepted truncated frame of %d/%d bytes", i, len(valid))
		}
	}
}

func TestDecodeResponse_VarintOverflow(t *testing.T) {
	// 16-byte ID then 11 continuation bytes: varint longer than any uint64.
	payload := make([]byte, 0, 32)
	payload = append(payload, bytes.Repeat([]byte{0xAA}, 16)...)
	payload = append(payload, bytes.Repeat([]byte{0x80}, 11)...)

	_, err := DecodeResponse(withPayload(FrameResponse, payload))
	if !errors.Is(err, ErrOverflow) {
		t.Errorf("DecodeResponse error = %v, want %v", err, ErrOverflow)
	}
}

// TestEncode_PayloadBound pins the encode-side size limit: the largest
// body whose payload is exactly MaxPayloadSize still round trips, and
// one byte more is rejected instead of wrapping the 16-bit length field.
func TestEncode_PayloadBound(t *testing.T) {
	// Payload = 16 (ID) + 1 (varint 0) + 3 (varint body length) + body.
	const maxBody = MaxPayloadSize - 20

	req := RequestFrame{ID: uuid.New(), SentAtMs: 0, Body: strings.Repeat("a", maxBody)}
	data, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest at the limit failed: %v", err)
	}
	if len(data) != FrameHeaderSize+MaxPayloadSize {
		t.Errorf("frame size = %d, want %d", len(data), FrameHeaderSize+MaxPayloadSize)
	}
	got, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("DecodeRequest at the limit failed: %v", err)
	}
	if got.Body != req.Body {
		t.Error("body mangled at the payload limit")
	}

	req.Body = strings.Repeat("a", maxBody+1)
	if _, err := EncodeRequest(req); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("EncodeRequest over the limit error = %v, want %v", err, ErrFrameTooLarge)
	}

	resp := ResponseFrame{ID: uuid.New(), Sender: "alice", Body: strings.Repeat("a", MaxPayloadSize)}
	if _, err := EncodeResponse(resp); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("EncodeResponse over the limit error = %v, want %v", err, ErrFrameTooLarge)
	}
}

// payloadOf strips the header from an encoded frame.
func payloadOf(frame []byte) []byte {
	return append([]byte(nil), frame[FrameHeaderSize:]...)
}

// withPayload builds a frame with a correct header around an arbitrary payload.
func withPayload(ft FrameType, payload []byte) []byte {
	return append(header(ft, len(payload)), payload...)
}
