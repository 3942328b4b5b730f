//go:build unix

package filesystem

import (
	"io/fs"
	"syscall"
	"time"

	"github.com/cespare/xxhash/v2"
)

// identity returns the inode number of the file. Entries without a
// Stat_t, such as those of an in-memory file system, fall back to a hash
// of their name.
func identity(name string, info fs.FileInfo) uint64 {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return uint64(stat.Ino) //nolint:unconvert // uint32 on some platforms
	}
	return xxhash.Sum64String(name)
}

// changeTime returns the inode change time where the platform exposes
// it, and the modification time otherwise.
func changeTime(info fs.FileInfo) time.Time {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		if t, ok := statCtime(stat); ok {
			return t
		}
	}
	return info.ModTime()
}
