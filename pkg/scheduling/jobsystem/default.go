package jobsystem

import (
	"log/slog"
	"sync"
	"sync/atomic"

	gferrors "github.com/vnykmshr/jobflow/pkg/common/errors"
)

// The package-level functions below drive a single process-wide JobSystem.
// At most one default instance is live at a time, and it may only be used
// between a successful Init and the matching Shutdown.
var (
	defaultMu     sync.Mutex
	defaultSystem atomic.Pointer[JobSystem]
)

// Init creates the default job system with the calling goroutine as worker
// 0. It returns false if a default system is already live or cfg is invalid.
func Init(cfg Config) bool {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if s := defaultSystem.Load(); s != nil {
		logger.Warn("job system already initialized", slog.String("scheduler", s.Name()))
		return false
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("job system not initialized", slog.String("error", err.Error()))
		return false
	}
	defaultSystem.Store(New(cfg))
	return true
}

// Default returns the live default job system. It panics with
// ErrNotInitialized outside the Init/Shutdown window.
func Default() *JobSystem {
	s := defaultSystem.Load()
	if s == nil {
		panic(gferrors.NewOperationError("jobsystem", "Default", gferrors.ErrNotInitialized))
	}
	return s
}

// Shutdown stops the default job system so that Init may be called again.
func Shutdown() {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	Default().Shutdown()
	defaultSystem.Store(nil)
}

// Allocate allocates a job on the default job system.
func Allocate(fn func()) *Job { return Default().Allocate(fn) }

// Schedule schedules job into g on the default job system.
func Schedule(g *Group, job *Job) { Default().Schedule(g, job) }

// ScheduleGroup schedules jobs into g on the default job system.
func ScheduleGroup(g *Group, jobs ...*Job) { Default().ScheduleGroup(g, jobs...) }

// Wait helps the default job system until g drains.
func Wait(g *Group) bool { return Default().Wait(g) }

// ParallelFor runs fn over [0, count) in batches on the default job system.
func ParallelFor(g *Group, count, batchSize int, fn func(start, end int)) {
	Default().ParallelFor(g, count, batchSize, fn)
}

// LocalWorkerID returns the calling worker's id on the default job system.
func LocalWorkerID() int { return Default().LocalWorkerID() }

// LocalExecutingJob returns the calling worker's current job on the default job system.
func LocalExecutingJob() *Job { return Default().LocalExecutingJob() }

// WorkerCount returns the number of workers of the default job system.
func WorkerCount() int { return Default().WorkerCount() }
