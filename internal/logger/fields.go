package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging across the daemon.
// Use these consistently so log lines stay greppable across packages.
const (
	KeyCommand   = "command"    // Opcode name: mount, open, read_block, etc.
	KeySessionID = "session_id" // 16-bit session identifier
	KeySequence  = "sequence"   // Request sequence number
	KeyHandle    = "handle"     // File or directory handle id
	KeyStatus    = "status"     // Protocol status code
	KeyStatusMsg = "status_msg" // Human-readable status name

	KeyPath    = "path"     // Client-supplied or resolved path
	KeyOldPath = "old_path" // Source path for rename
	KeyNewPath = "new_path" // Destination path for rename

	KeyOffset       = "offset"
	KeyCount        = "count"
	KeyBytesRead    = "bytes_read"
	KeyBytesWritten = "bytes_written"
	KeyEOF          = "eof"

	KeyClientAddr = "client_addr"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"

	KeyEntries = "entries" // Number of directory entries materialized
)

// Command returns a slog.Attr for the opcode name.
func Command(name string) slog.Attr {
	return slog.String(KeyCommand, name)
}

// SessionID returns a slog.Attr for a session id.
func SessionID(id uint16) slog.Attr {
	return slog.Any(KeySessionID, id)
}

// Sequence returns a slog.Attr for a request sequence number.
func Sequence(seq uint8) slog.Attr {
	return slog.Any(KeySequence, seq)
}

// Handle returns a slog.Attr for a file/directory handle id.
func Handle(id int) slog.Attr {
	return slog.Int(KeyHandle, id)
}

// Status returns a slog.Attr for a protocol status code.
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// StatusMsg returns a slog.Attr for a human-readable status name.
func StatusMsg(msg string) slog.Attr {
	return slog.String(KeyStatusMsg, msg)
}

// Path returns a slog.Attr for a file/directory path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// OldPath returns a slog.Attr for the source path of a rename.
func OldPath(p string) slog.Attr {
	return slog.String(KeyOldPath, p)
}

// NewPath returns a slog.Attr for the destination path of a rename.
func NewPath(p string) slog.Attr {
	return slog.String(KeyNewPath, p)
}

// Offset returns a slog.Attr for a file offset.
func Offset(off int64) slog.Attr {
	return slog.Int64(KeyOffset, off)
}

// Count returns a slog.Attr for a requested byte count.
func Count(c int) slog.Attr {
	return slog.Int(KeyCount, c)
}

// BytesRead returns a slog.Attr for actual bytes read.
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for actual bytes written.
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// EOF returns a slog.Attr for an end-of-file indicator.
func EOF(eof bool) slog.Attr {
	return slog.Bool(KeyEOF, eof)
}

// ClientAddr returns a slog.Attr for the originating client address.
func ClientAddr(addr fmt.Stringer) slog.Attr {
	if addr == nil {
		return slog.String(KeyClientAddr, "")
	}
	return slog.String(KeyClientAddr, addr.String())
}

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error, or a zero Attr for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Entries returns a slog.Attr for a directory entry count.
func Entries(n int) slog.Attr {
	return slog.Int(KeyEntries, n)
}
