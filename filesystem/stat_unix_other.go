//go:build unix && !linux && !darwin

package filesystem

import (
	"syscall"
	"time"
)

// statCtime is not wired up for the remaining unix platforms; their
// Stat_t layouts differ.
func statCtime(*syscall.Stat_t) (time.Time, bool) {
	return time.Time{}, false
}
