package tnfs

import (
	"bytes"
	"testing"
)

func TestRequestHeaderRoundTrip(t *testing.T) {
	cases := []RequestHeader{
		{SessionID: 0, Sequence: 0, Command: 0},
		{SessionID: 0xFFFF, Sequence: 0xFF, Command: 0xFF},
		{SessionID: 0x1234, Sequence: 7, Command: uint8(CmdReadBlock)},
	}

	for _, h := range cases {
		payload := []byte("hello")
		buf := make([]byte, RequestHeaderLen+len(payload))
		buf[0] = byte(h.SessionID)
		buf[1] = byte(h.SessionID >> 8)
		buf[2] = h.Sequence
		buf[3] = h.Command
		copy(buf[RequestHeaderLen:], payload)

		got, gotPayload, err := DecodeRequest(buf)
		if err != nil {
			t.Fatalf("DecodeRequest: %v", err)
		}
		if got != h {
			t.Errorf("got %+v, want %+v", got, h)
		}
		if !bytes.Equal(gotPayload, payload) {
			t.Errorf("payload = %q, want %q", gotPayload, payload)
		}
	}
}

func TestDecodeRequestTooShort(t *testing.T) {
	for n := 0; n < RequestHeaderLen; n++ {
		if _, _, err := DecodeRequest(make([]byte, n)); err == nil {
			t.Errorf("DecodeRequest with %d bytes: want error, got nil", n)
		}
	}
}

func TestReplyHeaderRoundTrip(t *testing.T) {
	cases := []struct {
		header  ReplyHeader
		payload []byte
	}{
		{ReplyHeader{SessionID: 0, Sequence: 0, Command: 0, Status: 0}, nil},
		{ReplyHeader{SessionID: 0xBEEF, Sequence: 42, Command: uint8(CmdMount), Status: uint8(StatusOutOfResources)}, []byte{1, 2, 3}},
	}

	for _, c := range cases {
		encoded := EncodeReply(c.header, c.payload)
		gotHeader, gotPayload, err := DecodeReply(encoded)
		if err != nil {
			t.Fatalf("DecodeReply: %v", err)
		}
		if gotHeader != c.header {
			t.Errorf("got %+v, want %+v", gotHeader, c.header)
		}
		if !bytes.Equal(gotPayload, c.payload) {
			t.Errorf("payload = %v, want %v", gotPayload, c.payload)
		}
	}
}

func TestDecodeReplyTooShort(t *testing.T) {
	if _, _, err := DecodeReply(make([]byte, ReplyHeaderLen-1)); err == nil {
		t.Error("want error for short reply, got nil")
	}
}

func TestEncodeReplyLittleEndian(t *testing.T) {
	buf := EncodeReply(ReplyHeader{SessionID: 0x0102, Sequence: 3, Command: 4, Status: 5}, nil)
	if buf[0] != 0x02 || buf[1] != 0x01 {
		t.Errorf("session id bytes = %x %x, want little-endian 02 01", buf[0], buf[1])
	}
}
