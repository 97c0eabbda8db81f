/*
Package freelist provides a lock-free, growable free-list of fixed-size slots.

A List hands out pointers to T values that live in chunk arrays it owns, and
takes them back for reuse from any goroutine. No slot is ever returned to
the garbage collector once allocated, so a warmed-up list serves every
Get/Put with a single compare-and-swap and no allocation:

	jobs := freelist.New[Job](1024, 0)
	jobs.Prewarm(4096)

	j, slot := jobs.Get()
	// ... use j ...
	*j = Job{}
	jobs.Put(slot)

Slots are addressed by a 32-bit index. The list head packs that index with a
32-bit version counter that changes on every successful update, which keeps
the Treiber stack free of the ABA problem even though slots are recycled.

When the stack is empty Get allocates one more chunk. A non-zero maxItems
caps the total number of slots; exceeding it panics with an error wrapping
ErrCapacityExceeded.
*/
package freelist
