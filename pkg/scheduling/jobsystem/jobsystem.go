package jobsystem

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/petermattis/goid"
	"github.com/prometheus/client_golang/prometheus"

	gferrors "github.com/vnykmshr/jobflow/pkg/common/errors"
	"github.com/vnykmshr/jobflow/pkg/metrics"
	"github.com/vnykmshr/jobflow/pkg/scheduling/freelist"
)

// State is the lifecycle state of a JobSystem.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateActive
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// JobSystem is a work-stealing scheduler. It owns one worker per spawned
// goroutine plus worker 0, which is the goroutine that called New.
//
// Every method except Name, State, Stats and WorkerCount must be called from
// a registered worker: worker 0, or code running inside a job.
type JobSystem struct {
	name   string
	cfg    Config
	logger *slog.Logger

	state       atomic.Int32
	active      atomic.Bool
	initialized atomic.Bool
	ready       atomic.Int32
	pending     atomic.Int64
	panicked    atomic.Int64

	workers    []*worker
	identities sync.Map // goroutine id -> *worker
	jobs       *freelist.List[Job]

	// park/wake
	mu     sync.Mutex
	wake   *sync.Cond
	parked atomic.Int32

	// startup handshake
	startMu   sync.Mutex
	startCond *sync.Cond

	wg sync.WaitGroup

	inst      *instruments
	collector prometheus.Collector
	registry  *metrics.Registry
}

// New initializes a job system and registers the calling goroutine as
// worker 0. It returns once every spawned worker is running. New panics
// with a ValidationError if cfg is invalid.
func New(cfg Config) *JobSystem {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	if cfg.Name == "" {
		cfg.Name = "jobs-" + uuid.NewString()[:8]
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	spawned := cfg.workerCount()
	s := &JobSystem{
		name:   cfg.Name,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "jobsystem"), slog.String("scheduler", cfg.Name)),
		jobs:   freelist.New[Job](cfg.ChunkSize, cfg.MaxJobs),
	}
	s.wake = sync.NewCond(&s.mu)
	s.startCond = sync.NewCond(&s.startMu)
	s.state.Store(int32(StateInitializing))

	s.jobs.Prewarm(cfg.prewarmSlots(spawned))

	if cfg.Metrics.Enabled {
		s.registry = metrics.For(cfg.Metrics.Registry)
		s.inst = newInstruments(s.registry, s.name)
	}

	s.workers = make([]*worker, spawned+1)
	for i := range s.workers {
		s.workers[i] = newWorker(s, i)
	}
	s.workers[0].goid.Store(goid.Get())

	s.ready.Store(int32(spawned))
	for _, w := range s.workers[1:] {
		s.wg.Add(1)
		go s.workerMain(w)
	}

	// every worker has built its state before any of them enters the loop
	s.awaitStartup(func() bool { return s.ready.Load() == 0 })
	s.active.Store(true)
	s.state.Store(int32(StateActive))
	s.signalStartup(func() { s.initialized.Store(true) })

	if s.registry != nil {
		s.registerCollector()
	}

	s.logger.Info("job system started",
		slog.Int("workers", len(s.workers)),
		slog.Int("job_slots", s.jobs.Cap()),
	)
	return s
}

// Shutdown stops and joins every spawned worker. It must be called by
// worker 0 with no jobs pending; otherwise it panics and the system stays
// active. After Shutdown every other method panics with ErrNotInitialized.
func (s *JobSystem) Shutdown() {
	w := s.resolve("Shutdown")
	if w.id != 0 {
		s.fatal("Shutdown", gferrors.ErrInvalidState,
			fmt.Sprintf("called from worker %d, want the initializing goroutine", w.id))
	}
	if n := s.pending.Load(); n != 0 {
		s.fatal("Shutdown", gferrors.ErrPendingJobs, fmt.Sprintf("%d pending", n))
	}

	s.state.Store(int32(StateShuttingDown))
	s.active.Store(false)
	s.mu.Lock()
	s.wake.Broadcast()
	s.mu.Unlock()
	s.wg.Wait()

	if s.collector != nil {
		s.registry.Registerer().Unregister(s.collector)
		s.collector = nil
	}

	s.identities.Clear()
	for _, w := range s.workers {
		w.goid.Store(0)
		w.current.Store(nil)
	}
	s.initialized.Store(false)
	s.state.Store(int32(StateUninitialized))

	s.logger.Info("job system stopped",
		slog.Int64("executed", s.Stats().Executed),
	)
}

// Name returns the scheduler's name.
func (s *JobSystem) Name() string {
	return s.name
}

// State returns the current lifecycle state.
func (s *JobSystem) State() State {
	return State(s.state.Load())
}

// Active reports whether the system accepts work.
func (s *JobSystem) Active() bool {
	return s.active.Load()
}

// awaitStartup spins for a while and then parks until done reports true.
func (s *JobSystem) awaitStartup(done func() bool) {
	for i := 0; i < s.cfg.SpinCount; i++ {
		if done() {
			return
		}
		runtime.Gosched()
	}

	s.startMu.Lock()
	for !done() {
		s.startCond.Wait()
	}
	s.startMu.Unlock()
}

func (s *JobSystem) signalStartup(update func()) {
	update()
	s.startMu.Lock()
	s.startCond.Broadcast()
	s.startMu.Unlock()
}

// park blocks the worker until jobs are pending or the system stops.
// parked is raised before pending is checked, and wakeAll reads parked
// after raising pending, so one of the two always sees the other.
func (s *JobSystem) park() {
	s.mu.Lock()
	s.parked.Add(1)
	for s.active.Load() && s.pending.Load() <= 0 {
		if s.inst != nil {
			s.inst.parks.Inc()
		}
		s.wake.Wait()
	}
	s.parked.Add(-1)
	s.mu.Unlock()
}

func (s *JobSystem) wakeAll() {
	if s.parked.Load() == 0 {
		return
	}
	s.mu.Lock()
	s.wake.Broadcast()
	s.mu.Unlock()
}

// resolve returns the worker owned by the calling goroutine. The table is
// walked once per goroutine; later calls hit the identity cache.
func (s *JobSystem) resolve(op string) *worker {
	if st := s.State(); st != StateActive {
		s.fatal(op, gferrors.ErrNotInitialized, "state="+st.String())
	}

	id := goid.Get()
	if w, ok := s.identities.Load(id); ok {
		return w.(*worker)
	}
	for _, w := range s.workers {
		if w.goid.Load() == id {
			s.identities.Store(id, w)
			return w
		}
	}

	s.fatal(op, gferrors.ErrUnregisteredWorker, fmt.Sprintf("goroutine %d", id))
	return nil
}

// fatal reports a contract violation. These are programming errors in the
// host and are never recovered by the scheduler.
func (s *JobSystem) fatal(op string, cause error, context string) {
	err := gferrors.NewOperationError("jobsystem", op, cause).WithContext(context)
	s.logger.Error("contract violation",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	panic(err)
}
