package benchmark

import (
	"io"
	"log/slog"
	"strconv"

	"github.com/vnykmshr/jobflow/pkg/scheduling/jobsystem"
)

func newJobSystem(workers int) *jobsystem.JobSystem {
	cfg := jobsystem.DefaultConfig()
	cfg.NumWorkers = workers
	cfg.TimeCriticalWorkers = false
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return jobsystem.New(cfg)
}

// workerLabel returns a label for a worker count.
func workerLabel(workers int) string {
	return strconv.Itoa(workers) + "workers"
}

// sizeLabel returns a label for a batch or buffer size.
func sizeLabel(size int) string {
	return "n" + strconv.Itoa(size)
}

// spin burns roughly n iterations of CPU so jobs have measurable weight.
func spin(n int) int {
	x := 0
	for i := 0; i < n; i++ {
		x += i * i
	}
	return x
}
