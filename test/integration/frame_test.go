// Package integration contains integration tests that verify cross-package functionality.
// These tests drive the job system the way a host application would.
package integration

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/jobflow/internal/testutil"
	"github.com/vnykmshr/jobflow/pkg/scheduling/jobsystem"
	"github.com/vnykmshr/jobflow/pkg/scheduling/recurring"
)

func quietConfig(workers int) jobsystem.Config {
	cfg := jobsystem.DefaultConfig()
	cfg.NumWorkers = workers
	cfg.TimeCriticalWorkers = false
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

// TestFrameLoop simulates a game loop: per frame a physics ParallelFor,
// then a transform job that feeds a render job, plus a recurring autosave
// pumped at the end of every frame.
func TestFrameLoop(t *testing.T) {
	js := jobsystem.New(quietConfig(3))
	defer js.Shutdown()
	stop := testutil.Watchdog(t, 30*time.Second)
	defer stop()

	clock := testutil.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rs := recurring.New(js, recurring.Config{Location: time.UTC, Clock: clock.Now})

	var saves atomic.Int64
	err := rs.Add("autosave", "@every 10s", func(js *jobsystem.JobSystem, g *jobsystem.Group) {
		js.ParallelFor(g, 16, 4, func(start, end int) {
			saves.Add(int64(end - start))
		})
	})
	if err != nil {
		t.Fatalf("failed to add autosave: %v", err)
	}

	const (
		frames    = 60
		particles = 10000
	)
	positions := make([]int64, particles)
	var renderedFrames, orderViolations atomic.Int64

	for frame := 0; frame < frames; frame++ {
		var physics jobsystem.Group
		js.ParallelFor(&physics, particles, 512, func(start, end int) {
			for i := start; i < end; i++ {
				positions[i]++
			}
		})
		js.Wait(&physics)

		var transformed atomic.Bool
		var g jobsystem.Group
		transform := js.Allocate(func() {
			testutil.Jitter(100 * time.Microsecond)
			transformed.Store(true)
		})
		render := js.Allocate(func() {
			if !transformed.Load() {
				orderViolations.Add(1)
			}
			renderedFrames.Add(1)
		})
		render.DependsOn(transform)
		js.ScheduleGroup(&g, render, transform)
		if !js.Wait(&g) {
			t.Fatalf("frame %d: wait returned false", frame)
		}

		clock.Advance(time.Second)
		rs.Pump(clock.Now())
	}

	for i, p := range positions {
		if p != frames {
			t.Fatalf("particle %d integrated %d times, want %d", i, p, frames)
		}
	}
	if got := renderedFrames.Load(); got != frames {
		t.Errorf("rendered %d frames, want %d", got, frames)
	}
	if got := orderViolations.Load(); got != 0 {
		t.Errorf("render ran before transform %d times", got)
	}
	if got := saves.Load(); got != 16*frames/10 {
		t.Errorf("saved %d chunks, want %d", got, 16*frames/10)
	}

	st := js.Stats()
	if st.Pending != 0 {
		t.Errorf("pending = %d after the last frame", st.Pending)
	}
	if st.SlotsFree != st.SlotsCapacity {
		t.Errorf("free slots = %d, capacity = %d; job slots leaked", st.SlotsFree, st.SlotsCapacity)
	}
	t.Logf("executed %d jobs, %d stolen, %d steal attempts", st.Executed, st.Stolen, st.StealAttempts)
}

// TestRepeatedLifecycle brings the default instance up and down with
// work in between, the way a host reinitializes after a settings change.
func TestRepeatedLifecycle(t *testing.T) {
	for round := 0; round < 5; round++ {
		if !jobsystem.Init(quietConfig(round % 3)) {
			t.Fatalf("round %d: Init refused", round)
		}

		var ran atomic.Int64
		var g jobsystem.Group
		jobsystem.ParallelFor(&g, 1000, 10, func(start, end int) {
			ran.Add(int64(end - start))
		})
		jobsystem.Wait(&g)
		if got := ran.Load(); got != 1000 {
			t.Errorf("round %d: ran %d indices, want 1000", round, got)
		}

		jobsystem.Shutdown()
	}
}

// TestWorkersStressWithJitter has every worker produce its own group of
// 1000 jobs while all of them steal from each other.
func TestWorkersStressWithJitter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	js := jobsystem.New(quietConfig(jobsystem.AutoWorkers))
	defer js.Shutdown()
	stop := testutil.Watchdog(t, 2*time.Minute)
	defer stop()

	const perWorker = 1000
	workers := js.WorkerCount()
	counts := make([]atomic.Int32, workers*perWorker)

	var outer jobsystem.Group
	for w := 0; w < workers; w++ {
		js.Schedule(&outer, js.Allocate(func() {
			var g jobsystem.Group
			for i := 0; i < perWorker; i++ {
				idx := w*perWorker + i
				js.Schedule(&g, js.Allocate(func() {
					counts[idx].Add(1)
					testutil.Jitter(10 * time.Microsecond)
				}))
			}
			js.Wait(&g)
		}))
	}
	js.Wait(&outer)

	for i := range counts {
		if n := counts[i].Load(); n != 1 {
			t.Fatalf("job %d ran %d times", i, n)
		}
	}
}
