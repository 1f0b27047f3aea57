package tnfs

import (
	"errors"
	"io/fs"
	"syscall"
)

// Status is a protocol-level status code, carried in the reply header's
// status byte. Zero is success;
// all other values name a specific failure class. Handlers never surface a
// host-native error code to the wire; TranslateHostError is the one
// crossing point.
type Status uint8

const (
	StatusSuccess         Status = 0
	StatusAccessDenied    Status = 1
	StatusNoSuchFile      Status = 2
	StatusIOError         Status = 3
	StatusBadHandle       Status = 4
	StatusInvalidSession  Status = 5
	StatusOutOfResources  Status = 6
	StatusNotSupported    Status = 7
	StatusInvalidArgument Status = 8
	StatusEOF             Status = 9
)

// String returns the lower_snake_case name used in logs and metrics
// labels.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusAccessDenied:
		return "access_denied"
	case StatusNoSuchFile:
		return "no_such_file"
	case StatusIOError:
		return "io_error"
	case StatusBadHandle:
		return "bad_handle"
	case StatusInvalidSession:
		return "invalid_session"
	case StatusOutOfResources:
		return "out_of_resources"
	case StatusNotSupported:
		return "not_supported"
	case StatusInvalidArgument:
		return "invalid_argument"
	case StatusEOF:
		return "eof"
	default:
		return "unknown"
	}
}

// TranslateHostError maps a host error, as returned by the os and
// io/fs packages, to the protocol status taxonomy. A nil error maps to
// StatusSuccess. This is the only place a host-native error is allowed to
// influence wire bytes; handlers must never forward an os.PathError or
// syscall.Errno directly.
func TranslateHostError(err error) Status {
	if err == nil {
		return StatusSuccess
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return StatusNoSuchFile
	case errors.Is(err, fs.ErrPermission):
		return StatusAccessDenied
	case errors.Is(err, fs.ErrInvalid):
		return StatusInvalidArgument
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOENT:
			return StatusNoSuchFile
		case syscall.EACCES, syscall.EPERM:
			return StatusAccessDenied
		case syscall.ENOSPC, syscall.EIO, syscall.EBADF:
			return StatusIOError
		case syscall.EINVAL:
			return StatusInvalidArgument
		}
	}

	return StatusIOError
}
