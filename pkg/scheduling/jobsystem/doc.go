/*
Package jobsystem provides a cooperative, work-stealing job scheduler with
explicit dependencies between jobs.

A JobSystem owns a fixed set of workers. Worker 0 is the goroutine that
called New; every other worker is a goroutine locked to its own OS thread.
There is no scheduler goroutine: whichever worker calls the API does the
scheduling.

Basic usage:

	js := jobsystem.New(jobsystem.DefaultConfig())
	defer js.Shutdown()

	var g jobsystem.Group
	for _, mesh := range meshes {
		mesh := mesh
		js.Schedule(&g, js.Allocate(func() { mesh.Skin() }))
	}
	js.Wait(&g)

Workers:

Each worker owns a deque. Scheduling pushes onto the calling worker's own
deque; the worker pops its newest job first, and idle workers steal the
oldest job of one random peer per tick. A worker parks on a condition
variable only when no job is pending anywhere in the system.

Waiting:

Wait never blocks. The waiting worker keeps executing queued jobs, its own
or stolen ones, until the group drains. Jobs may therefore schedule and
wait on their own sub-groups without deadlocking the system, even when the
waiting worker is the only one with nothing else to do.

Dependencies:

	var g jobsystem.Group
	a := js.Allocate(loadA)
	b := js.Allocate(loadB)
	d := js.Allocate(link)
	d.DependsOn(a, b)
	js.ScheduleGroup(&g, a, b, d)
	js.Wait(&g)

A job with unmet dependencies is registered with its group but not queued.
The worker that executes its last dependency pushes it onto its own deque,
so the dependent never starts before every dependency has returned.

Parallel loops:

	var g jobsystem.Group
	js.ParallelFor(&g, len(particles), 256, func(start, end int) {
		for i := start; i < end; i++ {
			particles[i].Integrate(dt)
		}
	})
	js.Wait(&g)

Memory:

Job storage comes from a lock-free free-list shared by all workers. A job's
slot is recycled as soon as it has executed; the *Job handle must not be
used after scheduling.

Contract violations:

Calling the API outside the New/Shutdown window, from a goroutine that is
not a worker, or shutting down with jobs pending are programming errors.
They are logged and raised as panics carrying an *errors.OperationError
that wraps ErrNotInitialized, ErrUnregisteredWorker, ErrPendingJobs or
ErrInvalidState. Panics raised by job bodies are recovered, logged and
passed to Config.PanicHandler.

Default instance:

Init, Shutdown and the package-level scheduling functions drive one
process-wide JobSystem for hosts that prefer a global:

	if !jobsystem.Init(cfg) {
		log.Fatal("job system already running")
	}
	defer jobsystem.Shutdown()
*/
package jobsystem
