//go:build !windows && !linux

package logger

import (
	"syscall"
	"unsafe"
)

// isTerminal reports whether fd is attached to a terminal, used to decide
// whether ANSI color codes are safe to write. BSD-family kernels (macOS
// included) expose terminal attributes via TIOCGETA; Linux uses TCGETS
// instead (see terminal_linux.go).
func isTerminal(fd uintptr) bool {
	var termios syscall.Termios
	_, _, err := syscall.Syscall6(
		syscall.SYS_IOCTL,
		fd,
		syscall.TIOCGETA,
		uintptr(unsafe.Pointer(&termios)),
		0, 0, 0,
	)
	return err == 0
}
