// Package tnfs implements the wire protocol, session management, and
// filesystem mediation for the datagram file service: header framing,
// opcode dispatch, and translation between client paths and the host
// filesystem rooted at a configured export directory.
package tnfs

import (
	"encoding/binary"
	"fmt"
)

const (
	// RequestHeaderLen is the size in bytes of a request header: session
	// id, sequence, and command. Requests carry no status byte; the
	// payload begins immediately after the command byte.
	RequestHeaderLen = 4

	// ReplyHeaderLen is the size in bytes of a reply header: session id,
	// sequence, command, and status. The payload begins immediately
	// after the status byte.
	ReplyHeaderLen = 5
)

// RequestHeader is the decoded header of a client-to-server datagram.
type RequestHeader struct {
	SessionID uint16
	Sequence  uint8
	Command   uint8
}

// ReplyHeader is the decoded header of a server-to-client datagram.
type ReplyHeader struct {
	SessionID uint16
	Sequence  uint8
	Command   uint8
	Status    uint8
}

// DecodeRequest parses a request header from the front of data and returns
// the remaining bytes as the command payload. It returns an error if data
// is shorter than RequestHeaderLen; callers must drop the datagram without
// replying in that case, per the framing contract.
func DecodeRequest(data []byte) (RequestHeader, []byte, error) {
	if len(data) < RequestHeaderLen {
		return RequestHeader{}, nil, fmt.Errorf("tnfs: request too short: %d bytes", len(data))
	}
	h := RequestHeader{
		SessionID: binary.LittleEndian.Uint16(data[0:2]),
		Sequence:  data[2],
		Command:   data[3],
	}
	return h, data[RequestHeaderLen:], nil
}

// EncodeReply produces a contiguous reply datagram: header fields followed
// by payload.
func EncodeReply(h ReplyHeader, payload []byte) []byte {
	buf := make([]byte, ReplyHeaderLen+len(payload))
	binary.LittleEndian.PutUint16(buf[0:2], h.SessionID)
	buf[2] = h.Sequence
	buf[3] = h.Command
	buf[4] = h.Status
	copy(buf[ReplyHeaderLen:], payload)
	return buf
}

// DecodeReply parses a reply header from the front of data and returns the
// remaining bytes as the reply payload. Used by tests exercising the codec
// round-trip; the server itself only ever encodes replies.
func DecodeReply(data []byte) (ReplyHeader, []byte, error) {
	if len(data) < ReplyHeaderLen {
		return ReplyHeader{}, nil, fmt.Errorf("tnfs: reply too short: %d bytes", len(data))
	}
	h := ReplyHeader{
		SessionID: binary.LittleEndian.Uint16(data[0:2]),
		Sequence:  data[2],
		Command:   data[3],
		Status:    data[4],
	}
	return h, data[ReplyHeaderLen:], nil
}
