// Package osthread applies OS scheduling hints to the calling thread.
//
// Callers must have pinned their goroutine with runtime.LockOSThread, or the
// hint lands on whatever thread the goroutine happens to run on.
package osthread

import "errors"

// ErrUnsupported is returned on platforms without a per-thread priority API.
var ErrUnsupported = errors.New("osthread: thread priority not supported on this platform")

// Priority is a scheduling class hint.
type Priority int

const (
	// Normal leaves the thread at the process default.
	Normal Priority = iota
	// High raises the thread above the process default.
	High
	// TimeCritical requests the highest priority the OS grants without
	// switching to a real-time policy.
	TimeCritical
)

func (p Priority) String() string {
	switch p {
	case Normal:
		return "normal"
	case High:
		return "high"
	case TimeCritical:
		return "time-critical"
	default:
		return "unknown"
	}
}

// SetCurrent applies p to the calling OS thread. Raising priority usually
// needs elevated privileges; the returned error is advisory and callers are
// expected to continue at the default priority.
func SetCurrent(p Priority) error {
	if p == Normal {
		return nil
	}
	return setCurrent(p)
}
