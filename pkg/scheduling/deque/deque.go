package deque

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Deque is a Chase-Lev work-stealing deque of *T.
// Push and Pop must only be called by the owner goroutine.
type Deque[T any] struct {
	top atomic.Int64
	_   cpu.CacheLinePad

	bottom atomic.Int64
	ring   atomic.Pointer[ring[T]]
}

type ring[T any] struct {
	mask  int64
	slots []atomic.Pointer[T]
}

func newRing[T any](capacity int64) *ring[T] {
	return &ring[T]{
		mask:  capacity - 1,
		slots: make([]atomic.Pointer[T], capacity),
	}
}

func (r *ring[T]) capacity() int64 {
	return r.mask + 1
}

func (r *ring[T]) get(i int64) *T {
	return r.slots[i&r.mask].Load()
}

func (r *ring[T]) put(i int64, v *T) {
	r.slots[i&r.mask].Store(v)
}

// grow copies the live range [top, bottom) into a ring twice the size.
func (r *ring[T]) grow(bottom, top int64) *ring[T] {
	next := newRing[T](r.capacity() * 2)
	for i := top; i < bottom; i++ {
		next.put(i, r.get(i))
	}
	return next
}

// New creates a deque with room for capacity items before it first grows.
// The capacity is rounded up to a power of two; values below 2 become 2.
func New[T any](capacity int) *Deque[T] {
	d := &Deque[T]{}
	d.ring.Store(newRing[T](roundPow2(int64(capacity))))
	return d
}

// Push inserts v at the bottom. Owner only.
func (d *Deque[T]) Push(v *T) {
	b := d.bottom.Load()
	t := d.top.Load()
	r := d.ring.Load()

	if b-t >= r.capacity() {
		r = r.grow(b, t)
		d.ring.Store(r)
	}

	r.put(b, v)
	d.bottom.Store(b + 1)
}

// Pop removes the most recently pushed item. Owner only.
// It returns nil when the deque is empty or a thief won the last item.
func (d *Deque[T]) Pop() *T {
	b := d.bottom.Load() - 1
	r := d.ring.Load()
	d.bottom.Store(b)
	t := d.top.Load()

	if t > b {
		// empty: restore canonical form
		d.bottom.Store(b + 1)
		return nil
	}

	v := r.get(b)
	if t == b {
		// last item, race the thieves for it
		if !d.top.CompareAndSwap(t, t+1) {
			v = nil
		}
		d.bottom.Store(b + 1)
	}
	return v
}

// Steal removes the oldest item. Safe from any goroutine.
// It returns nil when the deque is empty or the single CAS attempt lost.
func (d *Deque[T]) Steal() *T {
	t := d.top.Load()
	b := d.bottom.Load()
	if t >= b {
		return nil
	}

	v := d.ring.Load().get(t)
	if !d.top.CompareAndSwap(t, t+1) {
		return nil
	}
	return v
}

// Len returns an approximate count of queued items.
func (d *Deque[T]) Len() int {
	n := d.bottom.Load() - d.top.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Cap returns the current ring capacity.
func (d *Deque[T]) Cap() int {
	return int(d.ring.Load().capacity())
}

func roundPow2(n int64) int64 {
	c := int64(2)
	for c < n {
		c <<= 1
	}
	return c
}
