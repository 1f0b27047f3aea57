//go:build windows

package logger

import (
	"syscall"
	"unsafe"
)

var (
	kernel32           = syscall.NewLazyDLL("kernel32.dll")
	procGetConsoleMode = kernel32.NewProc("GetConsoleMode")
)

// isTerminal reports whether fd is attached to a console, used to decide
// whether the text log handler may emit ANSI color codes. This daemon
// never enables virtual-terminal processing on Windows, so color is
// effectively unused there; isTerminal only gates the log output path.
func isTerminal(fd uintptr) bool {
	var mode uint32
	r, _, _ := procGetConsoleMode.Call(fd, uintptr(unsafe.Pointer(&mode)))
	return r != 0
}
