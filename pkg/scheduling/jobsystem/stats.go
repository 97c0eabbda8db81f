package jobsystem

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/jobflow/pkg/metrics"
)

// WorkerStats describes one worker's activity.
type WorkerStats struct {
	ID            int
	Executed      int64
	Stolen        int64
	StealAttempts int64
	Queued        int
}

// Stats is a point-in-time snapshot of scheduler counters. Values are read
// without synchronization between fields and may be mutually inconsistent
// while jobs are running.
type Stats struct {
	Name          string
	State         State
	Pending       int64
	Parked        int
	Executed      int64
	Stolen        int64
	StealAttempts int64
	Panicked      int64
	SlotsCapacity int
	SlotsFree     int
	Workers       []WorkerStats
}

// Stats returns a snapshot of the scheduler. Safe from any goroutine.
func (s *JobSystem) Stats() Stats {
	st := Stats{
		Name:          s.name,
		State:         s.State(),
		Pending:       s.pending.Load(),
		Parked:        int(s.parked.Load()),
		Panicked:      s.panicked.Load(),
		SlotsCapacity: s.jobs.Cap(),
		SlotsFree:     s.jobs.Free(),
		Workers:       make([]WorkerStats, len(s.workers)),
	}
	for i, w := range s.workers {
		ws := WorkerStats{
			ID:            w.id,
			Executed:      w.executed.Load(),
			Stolen:        w.stolen.Load(),
			StealAttempts: w.stealAttempts.Load(),
			Queued:        w.queue.Len(),
		}
		st.Workers[i] = ws
		st.Executed += ws.Executed
		st.Stolen += ws.Stolen
		st.StealAttempts += ws.StealAttempts
	}
	return st
}

// Queued returns the total number of jobs sitting in worker queues.
func (st Stats) Queued() int {
	n := 0
	for _, w := range st.Workers {
		n += w.Queued
	}
	return n
}

// instruments are Prometheus series pre-curried with the scheduler label.
type instruments struct {
	scheduled      prometheus.Counter
	executed       prometheus.Counter
	panicked       prometheus.Counter
	stealAttempts  prometheus.Counter
	stealSuccesses prometheus.Counter
	parks          prometheus.Counter
	duration       prometheus.Observer
}

func newInstruments(r *metrics.Registry, name string) *instruments {
	return &instruments{
		scheduled:      r.JobsScheduled.WithLabelValues(name),
		executed:       r.JobsExecuted.WithLabelValues(name),
		panicked:       r.JobsPanicked.WithLabelValues(name),
		stealAttempts:  r.StealAttempts.WithLabelValues(name),
		stealSuccesses: r.StealSuccesses.WithLabelValues(name),
		parks:          r.WorkerParks.WithLabelValues(name),
		duration:       r.JobDuration.WithLabelValues(name),
	}
}

func (s *JobSystem) registerCollector() {
	c := metrics.NewSchedulerCollector(s.name, func() metrics.SchedulerSnapshot {
		st := s.Stats()
		return metrics.SchedulerSnapshot{
			Workers:       len(st.Workers),
			PendingJobs:   st.Pending,
			QueuedJobs:    st.Queued(),
			ParkedWorkers: st.Parked,
			SlotsCapacity: st.SlotsCapacity,
			SlotsFree:     st.SlotsFree,
		}
	})
	if err := s.registry.Registerer().Register(c); err != nil {
		s.logger.Warn("scheduler gauges not registered", slog.String("error", err.Error()))
		return
	}
	s.collector = c
}
