/*
Package recurring turns cron expressions into job groups on a jobsystem.JobSystem.

A Scheduler holds named entries. Each entry pairs a cron schedule with a
build function that schedules the entry's jobs into a group. Nothing runs in
the background: the host calls Pump from a registered worker, typically once
per frame or tick, and Pump builds every due entry, then waits on all of
their groups cooperatively.

	rs := recurring.New(js, recurring.Config{})
	err := rs.Add("autosave", "@every 30s", func(js *jobsystem.JobSystem, g *jobsystem.Group) {
		js.ParallelFor(g, len(chunks), 8, func(start, end int) {
			for _, c := range chunks[start:end] {
				c.Save()
			}
		})
	})

	for running {
		frame()
		rs.Pump(time.Now())
	}

Expressions accept an optional seconds field and the usual descriptors
("@hourly", "@every 1m30s"). Entries that missed several ticks between two
Pump calls run once and are rescheduled from the pump time.
*/
package recurring
