package jobsystem

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vnykmshr/jobflow/pkg/common/validation"
	"github.com/vnykmshr/jobflow/pkg/metrics"
	"github.com/vnykmshr/jobflow/pkg/scheduling/freelist"
)

// AutoWorkers asks New to spawn one worker per logical CPU, minus the one
// the initializing goroutine occupies.
const AutoWorkers = -1

// MaxWorkers bounds the number of spawned workers.
const MaxWorkers = 1024

// Config holds configuration options for creating a job system.
type Config struct {
	// Name labels logs and metrics. Defaults to "jobs-" plus a short random id.
	Name string `yaml:"name"`

	// NumWorkers is the number of worker goroutines to spawn, each locked to
	// its own OS thread. The initializing goroutine is always an extra worker.
	// AutoWorkers (-1) resolves to runtime.NumCPU()-1. Zero runs every job on
	// the initializing goroutine.
	NumWorkers int `yaml:"num_workers"`

	// MaxJobsPerWorkerPerChunk is the number of job slots preallocated per
	// worker, sized for the largest per-chunk fan-out the host submits.
	MaxJobsPerWorkerPerChunk int `yaml:"max_jobs_per_worker_per_chunk"`

	// QueueCapacity is the initial capacity of each worker's deque.
	// Deques grow on demand.
	QueueCapacity int `yaml:"queue_capacity"`

	// MaxJobs caps the number of job slots the allocator may create.
	// Zero lets the allocator grow until its internal limit.
	MaxJobs int `yaml:"max_jobs"`

	// ChunkSize is the number of job slots allocated at once when the
	// free-list runs dry.
	ChunkSize int `yaml:"chunk_size"`

	// SpinCount is how many times a worker yields before parking during the
	// startup handshake, and how many empty ticks it tolerates before
	// yielding the processor in its main loop.
	SpinCount int `yaml:"spin_count"`

	// TimeCriticalWorkers raises spawned worker threads to the highest
	// non-realtime OS priority. Failure to do so is logged and ignored.
	TimeCriticalWorkers bool `yaml:"time_critical_workers"`

	// Metrics controls Prometheus instrumentation.
	Metrics metrics.Config `yaml:"metrics"`

	// Logger receives lifecycle events and recovered job panics.
	// If nil, slog.Default() is used.
	Logger *slog.Logger `yaml:"-"`

	// PanicHandler is called when a job body panics. The job still counts as
	// executed so its group drains.
	PanicHandler func(job *Job, recovered interface{}) `yaml:"-"`
}

// DefaultConfig returns a configuration suitable for most hosts.
func DefaultConfig() Config {
	return Config{
		NumWorkers:               AutoWorkers,
		MaxJobsPerWorkerPerChunk: 256,
		QueueCapacity:            256,
		ChunkSize:                freelist.DefaultChunkSize,
		SpinCount:                64,
		TimeCriticalWorkers:      true,
	}
}

// Validate checks the configuration and returns a ValidationError for the
// first invalid field.
func (c Config) Validate() error {
	return validation.First(
		validation.ValidateAtLeast("jobsystem", "NumWorkers", c.NumWorkers, AutoWorkers),
		validation.ValidateAtMost("jobsystem", "NumWorkers", c.NumWorkers, MaxWorkers),
		validation.ValidateNonNegative("jobsystem", "MaxJobsPerWorkerPerChunk", c.MaxJobsPerWorkerPerChunk),
		validation.ValidateNonNegative("jobsystem", "QueueCapacity", c.QueueCapacity),
		validation.ValidateNonNegative("jobsystem", "MaxJobs", c.MaxJobs),
		validation.ValidateNonNegative("jobsystem", "ChunkSize", c.ChunkSize),
		validation.ValidateAtMost("jobsystem", "ChunkSize", c.ChunkSize, freelist.MaxChunkSize),
		validation.ValidateNonNegative("jobsystem", "SpinCount", c.SpinCount),
	)
}

// workerCount resolves the number of goroutines to spawn.
func (c Config) workerCount() int {
	if c.NumWorkers != AutoWorkers {
		return c.NumWorkers
	}
	return max(runtime.NumCPU()-1, 0)
}

// prewarmSlots is the number of job slots allocated up front.
func (c Config) prewarmSlots(workers int) int {
	n := (workers + 1) * c.MaxJobsPerWorkerPerChunk
	if c.MaxJobs > 0 {
		n = min(n, c.MaxJobs)
	}
	return n
}

// LoadConfig reads a YAML file on top of DefaultConfig and validates it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read job system config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse job system config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ConfigFromEnv returns base with any JOBFLOW_* environment overrides applied.
func ConfigFromEnv(base Config) Config {
	base.Name = getEnv("JOBFLOW_NAME", base.Name)
	base.NumWorkers = getEnvInt("JOBFLOW_NUM_WORKERS", base.NumWorkers)
	base.MaxJobsPerWorkerPerChunk = getEnvInt("JOBFLOW_MAX_JOBS_PER_WORKER_PER_CHUNK", base.MaxJobsPerWorkerPerChunk)
	base.QueueCapacity = getEnvInt("JOBFLOW_QUEUE_CAPACITY", base.QueueCapacity)
	base.MaxJobs = getEnvInt("JOBFLOW_MAX_JOBS", base.MaxJobs)
	base.ChunkSize = getEnvInt("JOBFLOW_CHUNK_SIZE", base.ChunkSize)
	base.SpinCount = getEnvInt("JOBFLOW_SPIN_COUNT", base.SpinCount)
	base.TimeCriticalWorkers = getEnvBool("JOBFLOW_THREAD_PRIORITY", base.TimeCriticalWorkers)
	base.Metrics.Enabled = getEnvBool("JOBFLOW_METRICS", base.Metrics.Enabled)
	return base
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return fallback
}
