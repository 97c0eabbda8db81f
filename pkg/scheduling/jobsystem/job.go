package jobsystem

import (
	"fmt"
	"sync/atomic"

	gferrors "github.com/vnykmshr/jobflow/pkg/common/errors"
)

// job lifecycle states
const (
	jobFree uint32 = iota
	jobAllocated
	jobScheduled
	jobExecuting
	jobExecuted
)

var jobStateNames = [...]string{"free", "allocated", "scheduled", "executing", "executed"}

// Job is a unit of work allocated by a JobSystem. Its storage is recycled
// as soon as it has executed, so the handle must not be used after the job
// has been scheduled except by the scheduler itself.
type Job struct {
	fn    func()
	group *Group
	sys   *JobSystem

	// unmet counts dependencies not yet executed, plus one hold that
	// scheduling releases. The job is queued when it reaches zero.
	unmet atomic.Int32
	state atomic.Uint32

	worker     int
	slot       uint32
	dependents []*Job
}

// DependsOn declares that j must not start until every job in deps has
// executed. Both j and deps must be allocated but not yet scheduled.
func (j *Job) DependsOn(deps ...*Job) {
	j.expect("DependsOn", jobAllocated)
	for _, d := range deps {
		if d == j {
			j.sys.fatal("DependsOn", gferrors.ErrInvalidState, "job cannot depend on itself")
		}
		d.expect("DependsOn", jobAllocated)
		d.dependents = append(d.dependents, j)
		j.unmet.Add(1)
	}
}

// WorkerID returns the id of the worker that allocated the job.
func (j *Job) WorkerID() int {
	return j.worker
}

// Group returns the group the job was scheduled into, or nil.
func (j *Job) Group() *Group {
	return j.group
}

func (j *Job) expect(op string, state uint32) {
	if s := j.state.Load(); s != state {
		j.sys.fatal(op, gferrors.ErrInvalidState,
			fmt.Sprintf("job is %s, want %s", jobStateNames[s], jobStateNames[state]))
	}
}

// advance moves the job from one state to the next, failing loudly when
// another goroutine or a stale handle got there first.
func (j *Job) advance(op string, from, to uint32) {
	if !j.state.CompareAndSwap(from, to) {
		j.sys.fatal(op, gferrors.ErrInvalidState,
			fmt.Sprintf("job is %s, want %s", jobStateNames[j.state.Load()], jobStateNames[from]))
	}
}

// reset clears the slot for reuse. Dependents keep their backing array.
func (j *Job) reset() {
	j.fn = nil
	j.group = nil
	clear(j.dependents)
	j.dependents = j.dependents[:0]
	j.unmet.Store(0)
	j.state.Store(jobFree)
}

// Group tracks a set of jobs whose joint completion can be awaited.
// The zero value is ready to use. A Group must outlive every job scheduled
// into it and must not be copied after first use.
//
// Once Wait has observed a group drained, scheduling into it again is a
// contract violation until Reset is called.
type Group struct {
	pending atomic.Int64
	awaited atomic.Bool

	// next is an intrusive link for callers that keep groups in lists.
	next *Group
}

// HasPendingJobs reports whether any job scheduled into g has not completed.
func (g *Group) HasPendingJobs() bool {
	return g.pending.Load() > 0
}

// Pending returns the number of jobs in g that have not completed.
func (g *Group) Pending() int64 {
	return g.pending.Load()
}

// Reset makes a drained group reusable. It panics if jobs are still pending.
func (g *Group) Reset() {
	if n := g.pending.Load(); n != 0 {
		panic(gferrors.NewOperationError("jobsystem", "Group.Reset", gferrors.ErrPendingJobs).
			WithContext(fmt.Sprintf("%d pending", n)))
	}
	g.awaited.Store(false)
	g.next = nil
}

// Next returns the group linked after g.
func (g *Group) Next() *Group {
	return g.next
}

// Link sets the group that follows g.
func (g *Group) Link(next *Group) {
	g.next = next
}

// add registers n jobs. It refuses once a Wait has seen g drained.
func (g *Group) add(n int64) bool {
	if g.awaited.Load() {
		return false
	}
	g.pending.Add(n)
	return true
}

func (g *Group) done() {
	if g.pending.Add(-1) < 0 {
		panic(gferrors.NewOperationError("jobsystem", "Group.done", gferrors.ErrInvalidState).
			WithContext("pending count went negative"))
	}
}
