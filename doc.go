/*
Package jobflow provides a cooperative, work-stealing job system for Go
programs that split frame- or batch-shaped work into many small jobs.

Scheduling (pkg/scheduling):
  - jobsystem: Job allocation, groups, dependencies, waiting and parallel loops
  - recurring: Cron-driven job groups pumped from a worker
  - deque: Lock-free work-stealing deque
  - freelist: Lock-free slot allocator for job storage

Supporting packages:
  - metrics: Prometheus instrumentation
  - common/errors: Sentinel errors and structured error types
  - common/validation: Configuration validation helpers

Example usage:

	import "github.com/vnykmshr/jobflow/pkg/scheduling/jobsystem"

	js := jobsystem.New(jobsystem.DefaultConfig())
	defer js.Shutdown()

	var g jobsystem.Group
	js.ParallelFor(&g, len(items), 64, func(start, end int) {
		for _, it := range items[start:end] {
			it.Update()
		}
	})
	js.Wait(&g)
*/
package jobflow
