// Package metrics provides Prometheus instrumentation for jobflow components.
//
// # Overview
//
// The job system and the recurring scheduler record counters and a duration
// histogram through a Registry, and export their live gauges through a
// SchedulerCollector that reads a snapshot on every scrape.
//
// # Quick Start
//
// Enable metrics through the job system configuration:
//
//	cfg := jobsystem.DefaultConfig()
//	cfg.Metrics = metrics.Config{Enabled: true, Registry: prometheus.DefaultRegisterer}
//	js := jobsystem.New(cfg)
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Available Metrics
//
// Counters and histograms, labelled by scheduler name:
//
//   - jobflow_jobsystem_jobs_scheduled_total
//   - jobflow_jobsystem_jobs_executed_total
//   - jobflow_jobsystem_jobs_panicked_total
//   - jobflow_jobsystem_steal_attempts_total
//   - jobflow_jobsystem_steal_successes_total
//   - jobflow_jobsystem_worker_parks_total
//   - jobflow_jobsystem_job_duration_seconds
//   - jobflow_recurring_runs_total (labelled by entry)
//
// Gauges, exported by SchedulerCollector with a constant scheduler label:
//
//   - jobflow_jobsystem_workers
//   - jobflow_jobsystem_pending_jobs
//   - jobflow_jobsystem_queued_jobs
//   - jobflow_jobsystem_parked_workers
//   - jobflow_jobsystem_job_slots
//   - jobflow_jobsystem_job_slots_free
//
// # Custom Registry
//
// Use For to share one Registry per Prometheus registerer:
//
//	reg := prometheus.NewRegistry()
//	r := metrics.For(reg)
//	r.JobsExecuted.WithLabelValues("frame").Inc()
//
// # Performance
//
// Label values are resolved once when a scheduler starts; the hot path only
// touches pre-curried counters. Gauges cost nothing until scraped.
package metrics
