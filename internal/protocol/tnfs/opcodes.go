package tnfs

// Command is an opcode identifying a request.
//
// Numeric assignments below are this implementation's own stable
// assignment, grouped by command class (session/directory/file) in
// ascending order; no client corpus was available in this exercise to
// confirm bit-exact compatibility with a specific historical client, so
// these values should be treated as this daemon's contract with itself,
// not a guarantee of interop with a third-party client built against a
// different numbering.
type Command uint8

const (
	// Session commands.
	CmdMount   Command = 0x00
	CmdUnmount Command = 0x01

	// Directory commands.
	CmdOpenDir  Command = 0x10
	CmdReadDir  Command = 0x11
	CmdCloseDir Command = 0x12
	CmdMkDir    Command = 0x13
	CmdRmDir    Command = 0x14
	CmdTellDir  Command = 0x15
	CmdSeekDir  Command = 0x16
	CmdOpenDirX Command = 0x17
	CmdReadDirX Command = 0x18

	// File commands.
	CmdOpenFileLegacy Command = 0x20
	CmdOpenFile       Command = 0x21
	CmdReadBlock      Command = 0x22
	CmdWriteBlock     Command = 0x23
	CmdCloseFile      Command = 0x24
	CmdStatFile       Command = 0x25
	CmdSeekFile       Command = 0x26
	CmdUnlinkFile     Command = 0x27
	CmdChmodFile      Command = 0x28
	CmdRenameFile     Command = 0x29

	// cmdTableSize bounds the dense dispatch table; any opcode at or
	// above this value falls through to the "not supported" handler.
	cmdTableSize = 0x30
)

// String returns the lower_snake_case name used in logs and metrics
// labels.
func (c Command) String() string {
	switch c {
	case CmdMount:
		return "mount"
	case CmdUnmount:
		return "unmount"
	case CmdOpenDir:
		return "opendir"
	case CmdReadDir:
		return "readdir"
	case CmdCloseDir:
		return "closedir"
	case CmdMkDir:
		return "mkdir"
	case CmdRmDir:
		return "rmdir"
	case CmdTellDir:
		return "telldir"
	case CmdSeekDir:
		return "seekdir"
	case CmdOpenDirX:
		return "opendirx"
	case CmdReadDirX:
		return "readdirx"
	case CmdOpenFileLegacy:
		return "open_legacy"
	case CmdOpenFile:
		return "open"
	case CmdReadBlock:
		return "read_block"
	case CmdWriteBlock:
		return "write_block"
	case CmdCloseFile:
		return "close"
	case CmdStatFile:
		return "stat"
	case CmdSeekFile:
		return "seek"
	case CmdUnlinkFile:
		return "unlink"
	case CmdChmodFile:
		return "chmod"
	case CmdRenameFile:
		return "rename"
	default:
		return "unknown"
	}
}
