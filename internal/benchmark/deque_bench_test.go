package benchmark

import (
	"sync"
	"testing"

	"github.com/vnykmshr/jobflow/pkg/scheduling/deque"
	"github.com/vnykmshr/jobflow/pkg/scheduling/freelist"
)

type item struct{ v int }

// BenchmarkDequePushPop measures the owner's uncontended path.
func BenchmarkDequePushPop(b *testing.B) {
	d := deque.New[item](256)
	it := &item{}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Push(it)
		d.Pop()
	}
}

// BenchmarkChannelSendReceive is the buffered-channel baseline for
// BenchmarkDequePushPop.
func BenchmarkChannelSendReceive(b *testing.B) {
	ch := make(chan *item, 256)
	it := &item{}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ch <- it
		<-ch
	}
}

// BenchmarkDequeStealContention measures thieves draining one owner.
func BenchmarkDequeStealContention(b *testing.B) {
	for _, thieves := range []int{1, 4} {
		b.Run(workerLabel(thieves), func(b *testing.B) {
			d := deque.New[item](1024)
			it := &item{}
			stop := make(chan struct{})

			var wg sync.WaitGroup
			for t := 0; t < thieves; t++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for {
						select {
						case <-stop:
							return
						default:
							d.Steal()
						}
					}
				}()
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				d.Push(it)
				d.Pop()
			}
			b.StopTimer()

			close(stop)
			wg.Wait()
		})
	}
}

// BenchmarkFreeListGetPut measures slot recycling under parallel load.
func BenchmarkFreeListGetPut(b *testing.B) {
	l := freelist.New[item](256, 0)
	l.Prewarm(4096)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, idx := l.Get()
			l.Put(idx)
		}
	})
}

// BenchmarkSyncPoolGetPut is the sync.Pool baseline for BenchmarkFreeListGetPut.
func BenchmarkSyncPoolGetPut(b *testing.B) {
	p := sync.Pool{New: func() any { return &item{} }}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			p.Put(p.Get())
		}
	})
}
