package testutil

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestEventually(t *testing.T) {
	t.Run("condition met immediately", func(t *testing.T) {
		called := false
		Eventually(t, func() bool {
			called = true
			return true
		}, 100*time.Millisecond, 10*time.Millisecond)

		if !called {
			t.Error("condition function should be called")
		}
	})

	t.Run("condition met after delay", func(t *testing.T) {
		var counter atomic.Int32
		go func() {
			time.Sleep(50 * time.Millisecond)
			counter.Store(1)
		}()

		Eventually(t, func() bool {
			return counter.Load() == 1
		}, time.Second, 5*time.Millisecond)
	})
}

func TestWaitForInt64(t *testing.T) {
	var value atomic.Int64

	go func() {
		time.Sleep(30 * time.Millisecond)
		value.Store(100)
	}()

	WaitForInt64(t, &value, 100, time.Second)
}

func TestJitterBounded(t *testing.T) {
	start := time.Now()
	for range 20 {
		Jitter(time.Millisecond)
	}
	Jitter(0)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("jitter took %v", elapsed)
	}
}

func TestWatchdogStopped(t *testing.T) {
	stop := Watchdog(t, time.Second)
	stop()
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(t)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("context should have a deadline")
	}
	if time.Until(deadline) > TestTimeout {
		t.Errorf("deadline too far: %v", time.Until(deadline))
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	c.Advance(90 * time.Second)
	if got := c.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("Now() = %v", got)
	}

	c.Set(start)
	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v", got)
	}

	if NewMockClock(time.Time{}).Now().IsZero() {
		t.Error("zero start should default to the current time")
	}
}
