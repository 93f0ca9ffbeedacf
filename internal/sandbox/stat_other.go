//go:build !linux

package sandbox

import (
	"os"
	"time"
)

// statTimes falls back to the modification time on platforms where the
// richer stat fields are not portably available.
func statTimes(info os.FileInfo) (created, accessed time.Time) {
	return info.ModTime(), info.ModTime()
}
