package tnfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// readCString splits buf at the first NUL byte, returning the string
// before it and the remainder after it (NUL consumed). Returns an error
// if buf contains no NUL.
func readCString(buf []byte) (string, []byte, error) {
	i := bytes.IndexByte(buf, 0)
	if i < 0 {
		return "", nil, fmt.Errorf("unterminated string in payload")
	}
	return string(buf[:i]), buf[i+1:], nil
}

// appendCString appends s followed by a NUL terminator.
func appendCString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}

func readUint8(buf []byte) (uint8, []byte, error) {
	if len(buf) < 1 {
		return 0, nil, fmt.Errorf("payload too short")
	}
	return buf[0], buf[1:], nil
}

func readUint16(buf []byte) (uint16, []byte, error) {
	if len(buf) < 2 {
		return 0, nil, fmt.Errorf("payload too short")
	}
	return binary.LittleEndian.Uint16(buf), buf[2:], nil
}

func readUint32(buf []byte) (uint32, []byte, error) {
	if len(buf) < 4 {
		return 0, nil, fmt.Errorf("payload too short")
	}
	return binary.LittleEndian.Uint32(buf), buf[4:], nil
}

func readInt64(buf []byte) (int64, []byte, error) {
	if len(buf) < 8 {
		return 0, nil, fmt.Errorf("payload too short")
	}
	return int64(binary.LittleEndian.Uint64(buf)), buf[8:], nil
}

func appendUint8(buf []byte, v uint8) []byte {
	return append(buf, v)
}

func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendInt64(buf []byte, v int64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	return append(buf, tmp[:]...)
}
