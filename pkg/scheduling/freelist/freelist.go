package freelist

import (
	"fmt"
	"sync/atomic"

	gferrors "github.com/vnykmshr/jobflow/pkg/common/errors"
	"github.com/vnykmshr/jobflow/pkg/common/validation"
)

const (
	// MaxChunks bounds the number of chunks a List can grow to.
	MaxChunks = 4096

	// MaxChunkSize bounds the number of slots per chunk.
	MaxChunkSize = 1 << 16

	// DefaultChunkSize is used when New receives a non-positive chunk size.
	DefaultChunkSize = 256
)

// List is a lock-free stack of reusable T slots.
type List[T any] struct {
	head      atomic.Uint64
	chunkSize uint32
	maxItems  int

	reserved atomic.Uint32
	chunks   [MaxChunks]atomic.Pointer[chunk[T]]

	capacity atomic.Int64
	free     atomic.Int64
}

type chunk[T any] struct {
	items []T
	// next holds the successor's index+1; 0 terminates the stack.
	next []atomic.Uint32
}

// New creates an empty list that grows chunkSize slots at a time.
// maxItems caps the number of slots exactly; 0 means the list may grow
// until MaxChunks chunks exist.
func New[T any](chunkSize, maxItems int) *List[T] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if err := validation.First(
		validation.ValidateAtMost("freelist", "chunkSize", chunkSize, MaxChunkSize),
		validation.ValidateNonNegative("freelist", "maxItems", maxItems),
	); err != nil {
		panic(err)
	}

	return &List[T]{
		chunkSize: uint32(chunkSize),
		maxItems:  maxItems,
	}
}

// Get pops a free slot, growing the list when none is available.
// The returned index identifies the slot for Put and At.
func (l *List[T]) Get() (*T, uint32) {
	for {
		h := l.head.Load()
		top := uint32(h)
		if top == 0 {
			idx := l.grow()
			return l.At(idx), idx
		}

		idx := top - 1
		next := l.link(idx).Load()
		if l.head.CompareAndSwap(h, pack(version(h)+1, next)) {
			l.free.Add(-1)
			return l.At(idx), idx
		}
	}
}

// Put returns the slot at idx to the list. The caller must not touch the
// slot afterwards.
func (l *List[T]) Put(idx uint32) {
	l.pushChain(idx, idx)
	l.free.Add(1)
}

// At returns the slot stored at idx.
func (l *List[T]) At(idx uint32) *T {
	c := l.chunks[idx/l.chunkSize].Load()
	return &c.items[idx%l.chunkSize]
}

// Prewarm grows the list until it holds at least n slots.
func (l *List[T]) Prewarm(n int) {
	for l.Cap() < n {
		l.Put(l.grow())
	}
}

// Cap returns the number of slots allocated so far.
func (l *List[T]) Cap() int {
	return int(l.capacity.Load())
}

// Free returns the number of slots currently on the stack.
func (l *List[T]) Free() int {
	return int(l.free.Load())
}

// grow allocates a chunk, keeps its first slot for the caller and pushes
// the rest onto the stack.
func (l *List[T]) grow() uint32 {
	n := l.reserved.Add(1) - 1
	if n >= MaxChunks || (l.maxItems > 0 && int(n)*int(l.chunkSize) >= l.maxItems) {
		l.reserved.Add(^uint32(0))
		panic(gferrors.NewOperationError("freelist", "Get", gferrors.ErrCapacityExceeded).
			WithContext(fmt.Sprintf("%d slots in use", l.Cap())))
	}

	c := &chunk[T]{
		items: make([]T, l.chunkSize),
		next:  make([]atomic.Uint32, l.chunkSize),
	}
	base := n * l.chunkSize

	// the last chunk below maxItems only hands out the slots under the cap
	usable := l.chunkSize
	if l.maxItems > 0 {
		usable = min(usable, uint32(l.maxItems)-base)
	}
	for i := uint32(1); i+1 < usable; i++ {
		c.next[i].Store(base + i + 2)
	}
	l.chunks[n].Store(c)
	l.capacity.Add(int64(usable))

	if usable > 1 {
		l.pushChain(base+1, base+usable-1)
		l.free.Add(int64(usable - 1))
	}
	return base
}

// pushChain links first..last (already chained through next) on top of the stack.
func (l *List[T]) pushChain(first, last uint32) {
	for {
		h := l.head.Load()
		l.link(last).Store(uint32(h))
		if l.head.CompareAndSwap(h, pack(version(h)+1, first+1)) {
			return
		}
	}
}

func (l *List[T]) link(idx uint32) *atomic.Uint32 {
	c := l.chunks[idx/l.chunkSize].Load()
	return &c.next[idx%l.chunkSize]
}

func pack(ver, top uint32) uint64 {
	return uint64(ver)<<32 | uint64(top)
}

func version(h uint64) uint32 {
	return uint32(h >> 32)
}
