//go:build darwin

package fs

import (
	"io/fs"
	"syscall"
)

// fillPlatformStat populates the uid/gid/atime/ctime fields available
// through the platform's native stat structure.
func fillPlatformStat(st *Stat, info fs.FileInfo) {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	st.UID = sys.Uid
	st.GID = sys.Gid
	st.Atime = sys.Atimespec.Sec
	st.Ctime = sys.Ctimespec.Sec
}
