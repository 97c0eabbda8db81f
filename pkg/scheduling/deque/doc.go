/*
Package deque provides a growable work-stealing double-ended queue.

A Deque has exactly one owner goroutine that pushes and pops at the bottom
end, and any number of thieves that steal from the top end:

	q := deque.New[Job](256)

	// owner
	q.Push(job)
	if j := q.Pop(); j != nil {
		run(j)
	}

	// any other goroutine
	if j := q.Steal(); j != nil {
		run(j)
	}

Pop is LIFO, so an owner that has just pushed sub-work runs the most recent
item first. Steal is FIFO relative to push order and takes the oldest item.

A race between Pop and one or more Steal calls for the last item is settled
by a single compare-and-swap on the top index. Exactly one caller wins; the
losers get nil. Steal never retries internally, so nil from either end is a
normal result meaning "nothing for you right now".

The ring buffer doubles when full. Old rings are left to the garbage
collector once no thief can still be reading them.
*/
package deque
