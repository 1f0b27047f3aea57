package fs

import (
	"io"
	"os"
)

// OpenFlag bits describe the client's requested access mode, translated
// from either the legacy or current wire encoding before reaching
// OpenFile. Binary mode is implicit: this implementation never opens a
// descriptor in a text-translating mode, since retro clients transmit
// raw bytes and any newline translation would corrupt blocks.
type OpenFlag uint8

const (
	OpenRead OpenFlag = 1 << iota
	OpenWrite
	OpenCreate
	OpenTrunc
	OpenAppend
)

// FileHandle is an open file: the host descriptor, its confined path,
// and the flags it was opened with. The descriptor's own offset is the
// logical offset seen by the client; no separate bookkeeping is kept.
type FileHandle struct {
	f     *os.File
	path  string
	flags OpenFlag
}

// OpenFile opens the confined path per flags and returns a handle.
func OpenFile(confinedPath string, flags OpenFlag) (*FileHandle, error) {
	hostFlags := 0
	switch {
	case flags&OpenRead != 0 && flags&OpenWrite != 0:
		hostFlags |= os.O_RDWR
	case flags&OpenWrite != 0:
		hostFlags |= os.O_WRONLY
	default:
		hostFlags |= os.O_RDONLY
	}
	if flags&OpenCreate != 0 {
		hostFlags |= os.O_CREATE
	}
	if flags&OpenTrunc != 0 {
		hostFlags |= os.O_TRUNC
	}
	if flags&OpenAppend != 0 {
		hostFlags |= os.O_APPEND
	}

	f, err := os.OpenFile(confinedPath, hostFlags, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileHandle{f: f, path: confinedPath, flags: flags}, nil
}

// Close releases the host descriptor.
func (h *FileHandle) Close() error {
	return h.f.Close()
}

// ReadBlock reads up to count bytes from the current offset. A short
// read that exhausts the file before count bytes are available is not
// an error; eof is true only when zero bytes could be read at all.
func (h *FileHandle) ReadBlock(count int) (data []byte, eof bool, err error) {
	buf := make([]byte, count)
	n, err := h.f.Read(buf)
	if err != nil && err != io.EOF {
		return nil, false, err
	}
	if n == 0 {
		return buf[:0], true, nil
	}
	return buf[:n], false, nil
}

// WriteBlock writes data at the current offset and returns the number of
// bytes actually written.
func (h *FileHandle) WriteBlock(data []byte) (int, error) {
	n, err := h.f.Write(data)
	return n, err
}

// Whence values for Seek, matching io.Seeker's convention.
const (
	SeekStart   = io.SeekStart
	SeekCurrent = io.SeekCurrent
	SeekEnd     = io.SeekEnd
)

// Seek repositions the logical offset and returns the resulting absolute
// offset.
func (h *FileHandle) Seek(offset int64, whence int) (int64, error) {
	return h.f.Seek(offset, whence)
}

// Stat describes a file's metadata in the fixed set of fields the wire
// stat reply carries.
type Stat struct {
	Mode  uint32
	UID   uint32
	GID   uint32
	Size  int64
	Atime int64
	Mtime int64
	Ctime int64
}

// StatFile returns metadata for the confined path. Uid/gid/ctime are
// populated from the platform-specific stat_t view where available; on
// platforms without that view they are left zero.
func StatFile(confinedPath string) (Stat, error) {
	info, err := os.Stat(confinedPath)
	if err != nil {
		return Stat{}, err
	}
	st := Stat{
		Mode:  uint32(info.Mode().Perm()),
		Size:  info.Size(),
		Mtime: info.ModTime().Unix(),
	}
	if info.IsDir() {
		st.Mode |= 1 << 31
	}
	fillPlatformStat(&st, info)
	return st, nil
}

// UnlinkFile removes a file at the confined path.
func UnlinkFile(confinedPath string) error {
	return os.Remove(confinedPath)
}

// RenameFile renames oldConfined to newConfined. Both paths must already
// be confinement-checked by the caller.
func RenameFile(oldConfined, newConfined string) error {
	return os.Rename(oldConfined, newConfined)
}
