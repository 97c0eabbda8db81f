/*
Package scheduling groups the job system and the primitives it is built from.

  - jobsystem: Work-stealing scheduler with dependencies and cooperative waits
  - recurring: Cron expressions turned into job groups
  - deque: Single-owner, multi-thief work-stealing deque
  - freelist: Chunked lock-free free-list with stable slot indices

Job System:

Workers are the goroutine that created the system plus one goroutine per
spawned worker, each locked to its own OS thread. Any worker may schedule
jobs and wait on groups; waiting workers keep executing jobs:

	js := jobsystem.New(jobsystem.DefaultConfig())
	defer js.Shutdown()

	var g jobsystem.Group
	a := js.Allocate(loadMesh)
	b := js.Allocate(uploadMesh)
	b.DependsOn(a)
	js.ScheduleGroup(&g, a, b)
	js.Wait(&g)

Recurring Groups:

	rs := recurring.New(js, recurring.Config{})
	rs.Add("autosave", "@every 30s", func(js *jobsystem.JobSystem, g *jobsystem.Group) {
		js.Schedule(g, js.Allocate(save))
	})
	rs.Pump(time.Now()) // once per frame, from a worker

Building Blocks:

deque and freelist are generic and usable on their own. The deque's owner
pushes and pops at the bottom while thieves take from the top with a single
CAS; the free-list hands out slots by 32-bit index and never frees memory
until it is garbage collected as a whole.
*/
package scheduling
