//go:build linux

package sandbox

import (
	"os"
	"syscall"
	"time"
)

// statTimes extracts creation and access times from the platform stat.
// Linux exposes no birth time through Stat_t, so the inode change time
// stands in for creation, matching what os.stat reports as st_ctime.
func statTimes(info os.FileInfo) (created, accessed time.Time) {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		created = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
		accessed = time.Unix(st.Atim.Sec, st.Atim.Nsec)
		return created, accessed
	}
	return info.ModTime(), info.ModTime()
}
