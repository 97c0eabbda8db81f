// Package benchmark compares the job system and its building blocks with
// plain goroutine and channel baselines. It contains only benchmarks.
package benchmark
