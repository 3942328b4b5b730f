//go:build linux

package filesystem

import (
	"syscall"
	"time"
)

func statCtime(stat *syscall.Stat_t) (time.Time, bool) {
	return time.Unix(int64(stat.Ctim.Sec), int64(stat.Ctim.Nsec)), true //nolint:unconvert // int32 on 32-bit platforms
}
