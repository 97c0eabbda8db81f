package jobsystem_test

import (
	"fmt"
	"sync/atomic"

	"github.com/vnykmshr/jobflow/pkg/scheduling/jobsystem"
)

func Example() {
	cfg := jobsystem.DefaultConfig()
	cfg.NumWorkers = 2
	cfg.TimeCriticalWorkers = false
	js := jobsystem.New(cfg)
	defer js.Shutdown()

	var sum atomic.Int64
	var g jobsystem.Group
	for i := 1; i <= 10; i++ {
		js.Schedule(&g, js.Allocate(func() { sum.Add(int64(i)) }))
	}
	js.Wait(&g)

	fmt.Println(sum.Load())
	// Output: 55
}

func ExampleJob_DependsOn() {
	cfg := jobsystem.DefaultConfig()
	cfg.NumWorkers = 3
	cfg.TimeCriticalWorkers = false
	js := jobsystem.New(cfg)
	defer js.Shutdown()

	var loaded atomic.Int32
	var g jobsystem.Group
	a := js.Allocate(func() { loaded.Add(1) })
	b := js.Allocate(func() { loaded.Add(1) })
	d := js.Allocate(func() { fmt.Println("dependencies loaded:", loaded.Load()) })
	d.DependsOn(a, b)

	js.ScheduleGroup(&g, a, b, d)
	js.Wait(&g)
	// Output: dependencies loaded: 2
}

func ExampleJobSystem_ParallelFor() {
	cfg := jobsystem.DefaultConfig()
	cfg.NumWorkers = 3
	cfg.TimeCriticalWorkers = false
	js := jobsystem.New(cfg)
	defer js.Shutdown()

	squares := make([]int, 8)
	var g jobsystem.Group
	js.ParallelFor(&g, len(squares), 3, func(start, end int) {
		for i := start; i < end; i++ {
			squares[i] = i * i
		}
	})
	js.Wait(&g)

	fmt.Println(squares)
	// Output: [0 1 4 9 16 25 36 49]
}
