//go:build darwin

package filesystem

import (
	"syscall"
	"time"
)

func statCtime(stat *syscall.Stat_t) (time.Time, bool) {
	return time.Unix(stat.Ctimespec.Sec, stat.Ctimespec.Nsec), true
}
