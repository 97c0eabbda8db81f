package jobsystem

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/jobflow/internal/testutil"
)

func TestNestedWaits(t *testing.T) {
	for _, workers := range []int{0, 3} {
		t.Run(workerLabel(workers), func(t *testing.T) {
			js := New(testConfig(workers))
			defer js.Shutdown()
			stop := testutil.Watchdog(t, 30*time.Second)
			defer stop()

			const parents, children = 8, 100
			var (
				ran     atomic.Int64
				drained atomic.Int32
				outer   Group
			)
			for range parents {
				js.Schedule(&outer, js.Allocate(func() {
					var inner Group
					for range children {
						js.Schedule(&inner, js.Allocate(func() {
							ran.Add(1)
							testutil.Jitter(10 * time.Microsecond)
						}))
					}
					if js.Wait(&inner) {
						drained.Add(1)
					}
				}))
			}

			require.True(t, js.Wait(&outer))
			assert.Equal(t, int64(parents*children), ran.Load())
			assert.Equal(t, int32(parents), drained.Load())
		})
	}
}

func TestConcurrentProducers(t *testing.T) {
	js := New(testConfig(4))
	defer js.Shutdown()
	stop := testutil.Watchdog(t, 60*time.Second)
	defer stop()

	const perWorker = 1000
	producers := js.WorkerCount()
	var (
		ran     atomic.Int64
		drained atomic.Int32
		outer   Group
	)
	for range producers {
		js.Schedule(&outer, js.Allocate(func() {
			var g Group
			for range perWorker {
				js.Schedule(&g, js.Allocate(func() { ran.Add(1) }))
				testutil.Jitter(20 * time.Microsecond)
			}
			if js.Wait(&g) {
				drained.Add(1)
			}
		}))
	}

	require.True(t, js.Wait(&outer))
	assert.Equal(t, int64(producers*perWorker), ran.Load())
	assert.Equal(t, int32(producers), drained.Load())

	st := js.Stats()
	assert.Zero(t, st.Pending)
	assert.Equal(t, int64(producers*perWorker+producers), st.Executed)
	assert.Equal(t, st.SlotsCapacity, st.SlotsFree)
}

// Workers pause before every steal attempt, so thieves hit the owners'
// queues at varied points of their push and pop sequences.
func TestConcurrentProducersWithStealJitter(t *testing.T) {
	testHookSteal = func() { testutil.Jitter(20 * time.Microsecond) }
	defer func() { testHookSteal = nil }()

	js := New(testConfig(4))
	defer js.Shutdown()
	stop := testutil.Watchdog(t, 60*time.Second)
	defer stop()

	const perWorker = 1000
	producers := js.WorkerCount()
	counts := make([]atomic.Int32, producers*perWorker)

	var outer Group
	for p := range producers {
		js.Schedule(&outer, js.Allocate(func() {
			var g Group
			for i := range perWorker {
				idx := p*perWorker + i
				js.Schedule(&g, js.Allocate(func() { counts[idx].Add(1) }))
				testutil.Jitter(5 * time.Microsecond)
			}
			js.Wait(&g)
		}))
	}
	require.True(t, js.Wait(&outer))

	for i := range counts {
		require.Equal(t, int32(1), counts[i].Load(), "job %d", i)
	}
	assert.Positive(t, js.Stats().Stolen)
}

func TestParallelFor(t *testing.T) {
	js := New(testConfig(3))
	defer js.Shutdown()

	tests := []struct {
		count, batch, batches int
	}{
		{1000, 7, 143},
		{1000, 1000, 1},
		{10, 64, 1},
		{1, 1, 1},
		{64, 8, 8},
	}

	for _, tt := range tests {
		seen := make([]atomic.Int32, tt.count)
		var calls atomic.Int32
		var g Group
		js.ParallelFor(&g, tt.count, tt.batch, func(start, end int) {
			calls.Add(1)
			assert.LessOrEqual(t, end-start, tt.batch)
			for i := start; i < end; i++ {
				seen[i].Add(1)
			}
		})
		require.True(t, js.Wait(&g))

		assert.Equal(t, int32(tt.batches), calls.Load(), "count=%d batch=%d", tt.count, tt.batch)
		for i := range seen {
			require.Equal(t, int32(1), seen[i].Load(), "index %d", i)
		}
	}
}

func TestParallelForEdgeCases(t *testing.T) {
	js := New(testConfig(1))
	defer js.Shutdown()

	var g Group
	js.ParallelFor(&g, 0, 16, func(int, int) { t.Error("called for empty range") })
	assert.False(t, g.HasPendingJobs())
	assert.True(t, js.Wait(&g))

	err := recoverError(t, func() { js.ParallelFor(&Group{}, 10, 0, func(int, int) {}) })
	assert.ErrorContains(t, err, "batchSize")

	err = recoverError(t, func() { js.ParallelFor(&Group{}, 10, 2, nil) })
	assert.ErrorContains(t, err, "fn")
}

func BenchmarkScheduleWait(b *testing.B) {
	cfg := testConfig(AutoWorkers)
	js := New(cfg)
	defer js.Shutdown()

	jobs := make([]*Job, 256)
	b.ResetTimer()
	for range b.N {
		var g Group
		for i := range jobs {
			jobs[i] = js.Allocate(func() {})
		}
		js.ScheduleGroup(&g, jobs...)
		js.Wait(&g)
	}
}
