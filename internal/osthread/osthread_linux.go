//go:build linux

package osthread

import (
	"golang.org/x/sys/unix"
)

// Linux applies nice values per thread when setpriority targets a TID.
var niceValues = map[Priority]int{
	High:         -5,
	TimeCritical: -15,
}

func setCurrent(p Priority) error {
	nice, ok := niceValues[p]
	if !ok {
		return nil
	}
	return unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), nice)
}

// Current returns the nice value of the calling thread.
func Current() (int, error) {
	// The raw syscall returns 20-nice to keep the result non-negative.
	prio, err := unix.Getpriority(unix.PRIO_PROCESS, unix.Gettid())
	if err != nil {
		return 0, err
	}
	return 20 - prio, nil
}
