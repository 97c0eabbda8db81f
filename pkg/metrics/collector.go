package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SchedulerSnapshot is a point-in-time view of a scheduler's gauges.
type SchedulerSnapshot struct {
	Workers       int
	PendingJobs   int64
	QueuedJobs    int
	ParkedWorkers int
	SlotsCapacity int
	SlotsFree     int
}

// SchedulerCollector exports SchedulerSnapshot values as gauges, read on
// every scrape instead of being pushed from the scheduling hot path.
type SchedulerCollector struct {
	snapshot func() SchedulerSnapshot

	workers  *prometheus.Desc
	pending  *prometheus.Desc
	queued   *prometheus.Desc
	parked   *prometheus.Desc
	capacity *prometheus.Desc
	free     *prometheus.Desc
}

// NewSchedulerCollector creates a collector for the scheduler called name.
func NewSchedulerCollector(name string, snapshot func() SchedulerSnapshot) *SchedulerCollector {
	labels := prometheus.Labels{"scheduler": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "jobsystem", metric), help, nil, labels)
	}

	return &SchedulerCollector{
		snapshot: snapshot,
		workers:  desc("workers", "Number of workers including the initializing goroutine"),
		pending:  desc("pending_jobs", "Jobs scheduled but not yet completed"),
		queued:   desc("queued_jobs", "Jobs sitting in worker queues"),
		parked:   desc("parked_workers", "Workers parked waiting for work"),
		capacity: desc("job_slots", "Job slots allocated by the free-list"),
		free:     desc("job_slots_free", "Job slots available for reuse"),
	}
}

// Describe implements prometheus.Collector.
func (c *SchedulerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.workers
	ch <- c.pending
	ch <- c.queued
	ch <- c.parked
	ch <- c.capacity
	ch <- c.free
}

// Collect implements prometheus.Collector.
func (c *SchedulerCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.snapshot()
	ch <- prometheus.MustNewConstMetric(c.workers, prometheus.GaugeValue, float64(s.Workers))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.PendingJobs))
	ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(s.QueuedJobs))
	ch <- prometheus.MustNewConstMetric(c.parked, prometheus.GaugeValue, float64(s.ParkedWorkers))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.SlotsCapacity))
	ch <- prometheus.MustNewConstMetric(c.free, prometheus.GaugeValue, float64(s.SlotsFree))
}
