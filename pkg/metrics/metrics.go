// Package metrics provides Prometheus instrumentation for jobflow components.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name exported by this package.
const Namespace = "jobflow"

// Registry holds all metric instances for jobflow components.
type Registry struct {
	// Job system counters
	JobsScheduled  *prometheus.CounterVec
	JobsExecuted   *prometheus.CounterVec
	JobsPanicked   *prometheus.CounterVec
	StealAttempts  *prometheus.CounterVec
	StealSuccesses *prometheus.CounterVec
	WorkerParks    *prometheus.CounterVec
	JobDuration    *prometheus.HistogramVec

	// Recurring scheduler counters
	RecurringRuns *prometheus.CounterVec

	reg prometheus.Registerer
}

// DefaultRegistry is the default metrics registry used by jobflow components.
var DefaultRegistry *Registry

var (
	registriesMu sync.Mutex
	registries   = map[prometheus.Registerer]*Registry{}
)

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
	registries[prometheus.DefaultRegisterer] = DefaultRegistry
}

// For returns the Registry bound to reg, creating it on first use. Calling
// NewRegistry twice with the same registerer would fail on duplicate
// registration, so components share registries through For.
func For(reg prometheus.Registerer) *Registry {
	if reg == nil {
		return DefaultRegistry
	}

	registriesMu.Lock()
	defer registriesMu.Unlock()

	if r, ok := registries[reg]; ok {
		return r
	}
	r := NewRegistry(reg)
	registries[reg] = r
	return r
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		JobsScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "jobsystem",
				Name:      "jobs_scheduled_total",
				Help:      "Total number of jobs scheduled",
			},
			[]string{"scheduler"},
		),

		JobsExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "jobsystem",
				Name:      "jobs_executed_total",
				Help:      "Total number of jobs executed",
			},
			[]string{"scheduler"},
		),

		JobsPanicked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "jobsystem",
				Name:      "jobs_panicked_total",
				Help:      "Total number of jobs whose body panicked",
			},
			[]string{"scheduler"},
		),

		StealAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "jobsystem",
				Name:      "steal_attempts_total",
				Help:      "Total number of steal attempts on peer queues",
			},
			[]string{"scheduler"},
		),

		StealSuccesses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "jobsystem",
				Name:      "steal_successes_total",
				Help:      "Total number of jobs taken from peer queues",
			},
			[]string{"scheduler"},
		),

		WorkerParks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "jobsystem",
				Name:      "worker_parks_total",
				Help:      "Total number of times a worker parked for lack of work",
			},
			[]string{"scheduler"},
		),

		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "jobsystem",
				Name:      "job_duration_seconds",
				Help:      "Time spent executing job bodies",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"scheduler"},
		),

		RecurringRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "recurring",
				Name:      "runs_total",
				Help:      "Total number of recurring entries turned into job groups",
			},
			[]string{"entry"},
		),

		reg: reg,
	}
}

// Registerer returns the Prometheus registerer backing this registry.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}
