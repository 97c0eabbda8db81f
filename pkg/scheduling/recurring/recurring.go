package recurring

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	gferrors "github.com/vnykmshr/jobflow/pkg/common/errors"
	"github.com/vnykmshr/jobflow/pkg/common/validation"
	"github.com/vnykmshr/jobflow/pkg/metrics"
	"github.com/vnykmshr/jobflow/pkg/scheduling/jobsystem"
)

// BuildFunc schedules an entry's jobs into g. It runs on the worker that
// called Pump.
type BuildFunc func(js *jobsystem.JobSystem, g *jobsystem.Group)

// Config holds configuration for a Scheduler.
type Config struct {
	// Location is the time zone expressions are evaluated in.
	// Defaults to time.Local.
	Location *time.Location

	// Clock returns the current time when entries are added.
	// Defaults to time.Now.
	Clock func() time.Time

	// Metrics controls the runs counter.
	Metrics metrics.Config

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Options tune a single entry.
type Options struct {
	// MaxRuns removes the entry after it has run this many times.
	// Zero means unlimited.
	MaxRuns int
}

// Entry is a read-only view of a scheduled entry.
type Entry struct {
	Name       string
	Expression string
	Next       time.Time
	Prev       time.Time
	Runs       int
	MaxRuns    int
}

type entry struct {
	name     string
	expr     string
	schedule cron.Schedule
	build    BuildFunc
	opts     Options

	next time.Time
	prev time.Time
	runs int

	// busy is set while the entry's group is in flight; a pump that finds
	// the entry due again meanwhile skips it.
	busy  bool
	group jobsystem.Group

	counter prometheus.Counter
}

// Scheduler keeps named cron entries and runs the due ones on Pump.
type Scheduler struct {
	js     *jobsystem.JobSystem
	parser cron.Parser
	loc    *time.Location
	clock  func() time.Time
	logger *slog.Logger

	registry *metrics.Registry

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates a Scheduler that builds its entries on js.
func New(js *jobsystem.JobSystem, cfg Config) *Scheduler {
	if err := validation.ValidateNotNil("recurring", "js", js); err != nil {
		panic(err)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		js:      js,
		parser:  cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		loc:     cfg.Location,
		clock:   cfg.Clock,
		logger:  logger.With(slog.String("component", "recurring"), slog.String("scheduler", js.Name())),
		entries: make(map[string]*entry),
	}
	if cfg.Metrics.Enabled {
		s.registry = metrics.For(cfg.Metrics.Registry)
	}
	return s
}

// Add registers build to run whenever expr fires.
func (s *Scheduler) Add(name, expr string, build BuildFunc) error {
	return s.AddWithOptions(name, expr, build, Options{})
}

// AddWithOptions registers build with per-entry options. Names are unique.
func (s *Scheduler) AddWithOptions(name, expr string, build BuildFunc, opts Options) error {
	if err := validation.First(
		validation.ValidateNotEmpty("recurring", "name", name),
		validation.ValidateNotNil("recurring", "build", build),
		validation.ValidateNonNegative("recurring", "MaxRuns", opts.MaxRuns),
	); err != nil {
		return err
	}
	schedule, err := s.parser.Parse(expr)
	if err != nil {
		return gferrors.NewValidationError("recurring", "expression", expr, err.Error()).
			WithHint("use five or six cron fields or a descriptor such as @hourly")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return gferrors.NewValidationError("recurring", "name", name, "already registered").
			WithHint("Remove the existing entry first")
	}

	e := &entry{
		name:     name,
		expr:     expr,
		schedule: schedule,
		build:    build,
		opts:     opts,
		next:     schedule.Next(s.clock().In(s.loc)),
	}
	if s.registry != nil {
		e.counter = s.registry.RecurringRuns.WithLabelValues(name)
	}
	s.entries[name] = e
	return nil
}

// Remove deletes the entry called name. A group already built for it still
// completes.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[name]; !ok {
		return false
	}
	delete(s.entries, name)
	return true
}

// Next returns when the entry called name fires next.
func (s *Scheduler) Next(name string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return time.Time{}, fmt.Errorf("recurring entry %q not found", name)
	}
	return e.next, nil
}

// Entries returns every entry ordered by next run time, then name.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.view())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Next.Equal(out[j].Next) {
			return out[i].Next.Before(out[j].Next)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Validate reports whether expr parses.
func (s *Scheduler) Validate(expr string) error {
	_, err := s.parser.Parse(expr)
	return err
}

// Pump builds every entry due at now and waits until all of their jobs have
// run. It must be called from a registered worker of the job system and
// returns the number of entries that ran.
func (s *Scheduler) Pump(now time.Time) int {
	s.js.LocalWorkerID()

	due := s.collect(now)
	if len(due) == 0 {
		return 0
	}

	// Build everything before waiting so entries overlap on the workers.
	var head *jobsystem.Group
	for _, e := range due {
		e.group.Reset()
		e.build(s.js, &e.group)
		e.group.Link(head)
		head = &e.group
	}

	for g := head; g != nil; g = g.Next() {
		if !s.js.Wait(g) {
			s.logger.Warn("job system stopped while recurring jobs were pending")
			return len(due)
		}
	}

	s.mu.Lock()
	for _, e := range due {
		e.busy = false
	}
	s.mu.Unlock()

	for _, e := range due {
		if e.counter != nil {
			e.counter.Inc()
		}
	}
	return len(due)
}

// collect advances every due entry and returns them ordered by name.
func (s *Scheduler) collect(now time.Time) []*entry {
	now = now.In(s.loc)

	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*entry
	for name, e := range s.entries {
		if e.busy || e.next.IsZero() || e.next.After(now) {
			continue
		}
		e.busy = true
		e.prev = now
		e.next = e.schedule.Next(now)
		e.runs++
		if e.opts.MaxRuns > 0 && e.runs >= e.opts.MaxRuns {
			delete(s.entries, name)
			s.logger.Debug("recurring entry finished", slog.String("entry", name), slog.Int("runs", e.runs))
		}
		due = append(due, e)
	}

	sort.Slice(due, func(i, j int) bool { return due[i].name < due[j].name })
	return due
}

// Run pumps the scheduler every tick until ctx is done. It blocks the
// calling worker, which keeps helping with jobs while it waits on groups.
func (s *Scheduler) Run(ctx context.Context, tick time.Duration) error {
	if err := validation.ValidatePositiveDuration("recurring", "tick", tick); err != nil {
		return err
	}
	s.js.LocalWorkerID()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Pump(s.clock())
		}
	}
}

func (e *entry) view() Entry {
	return Entry{
		Name:       e.name,
		Expression: e.expr,
		Next:       e.next,
		Prev:       e.prev,
		Runs:       e.runs,
		MaxRuns:    e.opts.MaxRuns,
	}
}
