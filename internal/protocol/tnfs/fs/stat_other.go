//go:build !linux && !darwin

package fs

import "io/fs"

// fillPlatformStat is a no-op on platforms without a native stat_t view;
// uid/gid/atime/ctime remain zero.
func fillPlatformStat(st *Stat, info fs.FileInfo) {}
