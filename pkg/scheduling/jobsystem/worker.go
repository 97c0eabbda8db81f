package jobsystem

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
	"golang.org/x/sys/cpu"

	gferrors "github.com/vnykmshr/jobflow/pkg/common/errors"
	"github.com/vnykmshr/jobflow/internal/osthread"
	"github.com/vnykmshr/jobflow/pkg/scheduling/deque"
)

// worker is the per-goroutine scheduling state. Only the owning goroutine
// pushes to or pops from queue; any worker may steal from it.
type worker struct {
	_ cpu.CacheLinePad

	id      int
	sys     *JobSystem
	goid    atomic.Int64
	queue   *deque.Deque[Job]
	rng     *rand.Rand
	current atomic.Pointer[Job]

	executed      atomic.Int64
	stolen        atomic.Int64
	stealAttempts atomic.Int64

	_ cpu.CacheLinePad
}

func newWorker(s *JobSystem, id int) *worker {
	return &worker{
		id:    id,
		sys:   s,
		queue: deque.New[Job](s.cfg.QueueCapacity),
		rng:   rand.New(rand.NewPCG(rand.Uint64(), uint64(id))),
	}
}

// victim picks a uniformly random peer index other than w, or -1 when w is
// the only worker.
func (w *worker) victim(n int) int {
	switch n {
	case 0, 1:
		return -1
	case 2:
		return 1 - w.id
	}
	v := w.rng.IntN(n - 1)
	if v >= w.id {
		v++
	}
	return v
}

// testHookSteal, when set, runs before every steal attempt. It must be set
// before New and cleared after Shutdown.
var testHookSteal func()

// workerMain runs on every spawned worker goroutine.
func (s *JobSystem) workerMain(w *worker) {
	defer s.wg.Done()

	// The goroutine never unlocks, so a thread whose priority was raised
	// exits with it instead of returning to the runtime's pool.
	runtime.LockOSThread()
	w.goid.Store(goid.Get())
	if s.cfg.TimeCriticalWorkers {
		if err := osthread.SetCurrent(osthread.TimeCritical); err != nil {
			s.logger.Debug("worker priority unchanged",
				slog.Int("worker", w.id),
				slog.String("error", err.Error()),
			)
		}
	}

	s.signalStartup(func() { s.ready.Add(-1) })
	s.awaitStartup(s.initialized.Load)

	idle := 0
	for s.active.Load() {
		if s.executeOne(w) {
			idle = 0
			continue
		}
		if s.pending.Load() <= 0 {
			s.park()
			idle = 0
			continue
		}
		// work is pending but held elsewhere: executing, or waiting on dependencies
		idle++
		if idle > s.cfg.SpinCount {
			runtime.Gosched()
		}
	}
}

// executeOne runs at most one job on w: its own newest job, or the oldest
// job of one random peer. It reports whether a job ran.
func (s *JobSystem) executeOne(w *worker) bool {
	j := w.queue.Pop()
	if j == nil {
		j = s.steal(w)
		if j == nil {
			return false
		}
	}
	s.execute(w, j)
	return true
}

func (s *JobSystem) steal(w *worker) *Job {
	v := w.victim(len(s.workers))
	if v < 0 {
		return nil
	}

	w.stealAttempts.Add(1)
	if s.inst != nil {
		s.inst.stealAttempts.Inc()
	}

	if testHookSteal != nil {
		testHookSteal()
	}
	j := s.workers[v].queue.Steal()
	if j != nil {
		w.stolen.Add(1)
		if s.inst != nil {
			s.inst.stealSuccesses.Inc()
		}
	}
	return j
}

func (s *JobSystem) execute(w *worker, j *Job) {
	// Jobs are only queued once their last dependency has executed.
	if n := j.unmet.Load(); n != 0 {
		s.fatal("execute", gferrors.ErrInvalidState, "queued job still has unmet dependencies")
	}
	j.advance("execute", jobScheduled, jobExecuting)

	prev := w.current.Swap(j)
	s.run(j)
	w.current.Store(prev)

	j.state.Store(jobExecuted)
	w.executed.Add(1)
	if s.inst != nil {
		s.inst.executed.Inc()
	}

	released := false
	for _, d := range j.dependents {
		if d.unmet.Add(-1) == 0 {
			w.queue.Push(d)
			released = true
		}
	}
	if released {
		s.wakeAll()
	}

	// The global counter drops before the group so that a waiter that sees
	// its group drained may shut down immediately.
	g := j.group
	if s.pending.Add(-1) < 0 {
		s.fatal("execute", gferrors.ErrInvalidState, "pending job count went negative")
	}
	s.recycle(j)
	if g != nil {
		g.done()
	}
}

// run invokes the job body. Panics from the body are recovered and
// reported; contract violations raised by nested scheduler calls are not.
func (s *JobSystem) run(j *Job) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if err, ok := r.(error); ok && (gferrors.IsContractViolation(err) || gferrors.IsResourceExhausted(err) || errors.Is(err, gferrors.ErrInvalidConfiguration)) {
			panic(r)
		}

		s.panicked.Add(1)
		if s.inst != nil {
			s.inst.panicked.Inc()
		}
		s.logger.Error("job panicked",
			slog.Int("worker", j.worker),
			slog.Any("panic", r),
			slog.String("stack", string(debug.Stack())),
		)
		if s.cfg.PanicHandler != nil {
			s.cfg.PanicHandler(j, r)
		}
	}()

	if s.inst == nil {
		j.fn()
		return
	}
	start := time.Now()
	j.fn()
	s.inst.duration.Observe(time.Since(start).Seconds())
}

func (s *JobSystem) recycle(j *Job) {
	slot := j.slot
	j.reset()
	s.jobs.Put(slot)
}
