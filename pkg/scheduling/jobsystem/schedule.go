package jobsystem

import (
	"fmt"
	"runtime"

	gferrors "github.com/vnykmshr/jobflow/pkg/common/errors"
	"github.com/vnykmshr/jobflow/pkg/common/validation"
)

// Allocate takes a job slot from the free-list and binds fn to it.
// The job does nothing until it is scheduled.
func (s *JobSystem) Allocate(fn func()) *Job {
	w := s.resolve("Allocate")
	return s.allocate(w, fn)
}

func (s *JobSystem) allocate(w *worker, fn func()) *Job {
	if err := validation.ValidateNotNil("jobsystem", "fn", fn); err != nil {
		panic(err)
	}

	j, slot := s.jobs.Get()
	j.fn = fn
	j.sys = s
	j.slot = slot
	j.worker = w.id
	j.unmet.Store(1)
	j.state.Store(jobAllocated)
	return j
}

// Schedule schedules a single job into g. See ScheduleGroup.
func (s *JobSystem) Schedule(g *Group, job *Job) {
	s.ScheduleGroup(g, job)
}

// ScheduleGroup registers every job with g and pushes the ones without
// unmet dependencies onto the calling worker's own queue. The remaining
// jobs are queued by whichever worker executes their last dependency.
// g may be nil for jobs nobody waits on.
func (s *JobSystem) ScheduleGroup(g *Group, jobs ...*Job) {
	w := s.resolve("ScheduleGroup")
	if len(jobs) == 0 {
		return
	}

	if g != nil && g.awaited.Load() {
		s.fatal("ScheduleGroup", gferrors.ErrInvalidState, "group already drained; call Reset before reuse")
	}

	// Every job is claimed before the group is touched. A rejected call
	// hands the claimed jobs back, so the group and the jobs stay usable.
	for i, j := range jobs {
		if j.sys != s {
			s.release(jobs[:i])
			s.fatal("ScheduleGroup", gferrors.ErrInvalidState, "job belongs to another job system")
		}
		if !j.state.CompareAndSwap(jobAllocated, jobScheduled) {
			s.release(jobs[:i])
			s.fatal("ScheduleGroup", gferrors.ErrInvalidState,
				fmt.Sprintf("job is %s, want %s", jobStateNames[j.state.Load()], jobStateNames[jobAllocated]))
		}
	}

	n := int64(len(jobs))
	if g != nil && !g.add(n) {
		s.release(jobs)
		s.fatal("ScheduleGroup", gferrors.ErrInvalidState, "group already drained; call Reset before reuse")
	}
	for _, j := range jobs {
		j.group = g
	}

	// Everything is registered before anything is queued, so no job can
	// drain g while later jobs of this call are still being added.
	s.pending.Add(n)
	if s.inst != nil {
		s.inst.scheduled.Add(float64(n))
	}

	for _, j := range jobs {
		if j.unmet.Add(-1) == 0 {
			w.queue.Push(j)
		}
	}
	s.wakeAll()
}

// release returns claimed jobs to the allocated state.
func (s *JobSystem) release(jobs []*Job) {
	for _, j := range jobs {
		j.state.Store(jobAllocated)
	}
}

// Wait executes queued jobs on the calling worker until g has no pending
// jobs or the system stops. It never parks. Wait returns true when g
// drained; from then on g rejects new jobs until Reset.
func (s *JobSystem) Wait(g *Group) bool {
	w := s.resolve("Wait")

	for g.HasPendingJobs() && s.active.Load() {
		if !s.executeOne(w) {
			runtime.Gosched()
		}
	}

	if g.HasPendingJobs() {
		return false
	}
	g.awaited.Store(true)
	return true
}

// ParallelFor splits [0, count) into ceil(count/batchSize) jobs, each calling
// fn with its half-open sub-range, and schedules them into g. The caller
// waits on g.
func (s *JobSystem) ParallelFor(g *Group, count, batchSize int, fn func(start, end int)) {
	w := s.resolve("ParallelFor")
	if err := validation.First(
		validation.ValidatePositive("jobsystem", "batchSize", batchSize),
		validation.ValidateNotNil("jobsystem", "fn", fn),
	); err != nil {
		panic(err)
	}
	if count <= 0 {
		return
	}

	batches := (count + batchSize - 1) / batchSize
	jobs := make([]*Job, batches)
	for i := range jobs {
		start := i * batchSize
		end := min(start+batchSize, count)
		jobs[i] = s.allocate(w, func() { fn(start, end) })
	}
	s.ScheduleGroup(g, jobs...)
}

// LocalWorkerID returns the id of the calling worker; 0 is the goroutine
// that called New.
func (s *JobSystem) LocalWorkerID() int {
	return s.resolve("LocalWorkerID").id
}

// LocalExecutingJob returns the job the calling worker is running, or nil.
// While a job waits on a group the helper job it is running is reported.
func (s *JobSystem) LocalExecutingJob() *Job {
	return s.resolve("LocalExecutingJob").current.Load()
}

// WorkerCount returns the number of workers, including worker 0.
func (s *JobSystem) WorkerCount() int {
	if st := s.State(); st != StateActive {
		s.fatal("WorkerCount", gferrors.ErrNotInitialized, "state="+st.String())
	}
	return len(s.workers)
}
