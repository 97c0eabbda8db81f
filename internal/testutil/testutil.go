// Package testutil holds helpers shared by jobflow tests.
package testutil

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

// TestTimeout is the default timeout for tests
const TestTimeout = 5 * time.Second

// WithTimeout creates a context with the default test timeout
func WithTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), TestTimeout)
}

// Eventually polls condition every interval until it returns true or
// timeout elapses, failing the test in the latter case.
func Eventually(t *testing.T, condition func() bool, timeout, interval time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if condition() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		time.Sleep(interval)
	}
}

// WaitForInt64 waits until the atomic value equals want.
func WaitForInt64(t *testing.T, value *atomic.Int64, want int64, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for value.Load() != want {
		if time.Now().After(deadline) {
			t.Fatalf("value = %d after %v, want %d", value.Load(), timeout, want)
		}
		time.Sleep(time.Millisecond)
	}
}

// Jitter sleeps for a random duration in [0, max). Stress tests call it
// between scheduler operations to shake out interleavings.
func Jitter(max time.Duration) {
	if max <= 0 {
		return
	}
	if d := time.Duration(rand.Int64N(int64(max))); d > max/2 {
		time.Sleep(d)
	} else {
		runtime.Gosched()
	}
}

// Watchdog crashes the test binary with every goroutine's stack if stop is
// not called within d. A deadlocked scheduler test cannot fail any other
// way, since the goroutine that would report the failure is the one stuck.
func Watchdog(t *testing.T, d time.Duration) (stop func()) {
	t.Helper()
	name := t.Name()
	done := make(chan struct{})
	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			panic(fmt.Sprintf("%s: no progress after %v\n%s", name, d, buf[:n]))
		}
	}()
	return func() { close(done) }
}
