package wstask

import "sync/atomic"

// queueCapacity is the fixed size of a Core's local run queue. Must stay a
// power of two so index wrapping can use a mask instead of modulo.
const queueCapacity = 256

const queueMask = queueCapacity - 1

// taskBox boxes a Task so a queue slot can be claimed and cleared with a
// single atomic.Pointer swap, rather than juggling the two words of a bare
// interface value across concurrent stealers.
type taskBox struct {
	task Task
}

// localQueue is a bounded single-producer/multi-consumer run queue: its
// owning worker is the only pusher, but any worker may steal from it
// concurrently (spec §4.1). head is CAS'd by both the owner's pop and a
// peer's steal; tail is written only by the owner, using an atomic store
// purely so concurrent stealers can read a consistent snapshot.
type localQueue struct {
	head   atomic.Uint32
	tail   atomic.Uint32
	buffer [queueCapacity]atomic.Pointer[taskBox]
}

func newLocalQueue() *localQueue {
	return &localQueue{}
}

// len returns a snapshot of the number of queued tasks. Racy by
// construction; callers use it for sizing decisions, not correctness.
func (q *localQueue) len() int {
	return int(q.tail.Load() - q.head.Load())
}

func (q *localQueue) isEmpty() bool { return q.len() <= 0 }

func (q *localQueue) hasTasks() bool { return q.len() > 0 }

// isStealable reports whether a steal attempt is worth making. The queue's
// CAS discipline makes every steal safe regardless, so this is just the
// non-empty check.
func (q *localQueue) isStealable() bool { return q.hasTasks() }

func (q *localQueue) maxCapacity() int { return queueCapacity }

func (q *localQueue) remainingSlots() int {
	n := queueCapacity - q.len()
	if n < 0 {
		return 0
	}
	return n
}

// pushBack is owner-only. It appends t to the back of the queue, spilling
// half the queue to the injection queue on overflow (spec §4.1's "push
// overflow" path).
func (q *localQueue) pushBack(t Task, inj *injectionQueue) (overflowed bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		if tail-head < queueCapacity {
			q.buffer[tail&queueMask].Store(&taskBox{task: t})
			q.tail.Store(tail + 1)
			return false
		}
		if q.pushOverflow(t, inj) {
			return true
		}
		// A concurrent steal won the race and freed capacity; retry.
	}
}

// pushOverflow reserves half the queue (CAS'd against head, so a
// concurrently-racing steal is never double-claimed), drains the reserved
// slots plus the new task into a batch, and hands the batch to the
// injection queue. Returns false if a concurrent steal beat it to the
// reservation, in which case the caller retries pushBack from scratch.
func (q *localQueue) pushOverflow(t Task, inj *injectionQueue) bool {
	head := q.head.Load()
	tail := q.tail.Load()
	n := uint32(queueCapacity / 2)
	if tail-head < n {
		// Someone else already drained us below the spill threshold.
		return false
	}
	if !q.head.CompareAndSwap(head, head+n) {
		return false
	}
	batch := make([]Task, 0, n+1)
	for i := uint32(0); i < n; i++ {
		idx := (head + i) & queueMask
		box := q.buffer[idx].Swap(nil)
		if box != nil {
			batch = append(batch, box.task)
		}
	}
	batch = append(batch, t)
	inj.pushBatch(batch)
	return true
}

// pop is owner-only. It claims and removes the single task at the front of
// the queue, if any.
func (q *localQueue) pop() (Task, bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		if head == tail {
			return nil, false
		}
		if !q.head.CompareAndSwap(head, head+1) {
			continue
		}
		box := q.buffer[head&queueMask].Swap(nil)
		if box == nil {
			// Lost to a concurrent steal's drain on this same slot
			// cannot happen for the slot this CAS exclusively claimed;
			// nil only occurs if the queue was never populated at this
			// index, i.e. a stale/empty box. Treat as empty.
			return nil, false
		}
		return box.task, true
	}
}

// stealInto claims up to half of q's pending tasks (bounded by dest's
// remaining capacity) and moves them to dest, returning the first stolen
// task directly so the stealer can run it immediately without a further
// pop (spec §4.7). dest must be owned exclusively by the calling worker.
func (q *localQueue) stealInto(dest *localQueue) (Task, bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		total := tail - head
		if total == 0 {
			return nil, false
		}
		take := (total + 1) / 2
		if take > total {
			take = total
		}
		if room := uint32(dest.remainingSlots()); take > room {
			take = room
		}
		if take == 0 {
			return nil, false
		}
		if !q.head.CompareAndSwap(head, head+take) {
			continue
		}
		var first Task
		var firstOK bool
		for i := uint32(0); i < take; i++ {
			idx := (head + i) & queueMask
			box := q.buffer[idx].Swap(nil)
			if box == nil {
				continue
			}
			if !firstOK {
				first, firstOK = box.task, true
				continue
			}
			dest.pushStolen(box.task)
		}
		if !firstOK {
			return nil, false
		}
		return first, true
	}
}

// pushStolen is an owner-only, non-CAS append used by stealInto once the
// stealing worker has already claimed a range from the victim: the
// destination queue is exclusively owned by the calling worker, so no
// synchronization beyond the atomic store (for concurrent stealers reading
// tail) is needed.
func (q *localQueue) pushStolen(t Task) {
	tail := q.tail.Load()
	q.buffer[tail&queueMask].Store(&taskBox{task: t})
	q.tail.Store(tail + 1)
}

// pushBatch is owner-only bulk append, used when next-task selection
// (spec §4.5) drains a sized slice from the injection queue into the local
// run queue. Callers must ensure len(tasks) <= remainingSlots().
func (q *localQueue) pushBatch(tasks []Task) {
	tail := q.tail.Load()
	for _, t := range tasks {
		q.buffer[tail&queueMask].Store(&taskBox{task: t})
		tail++
	}
	q.tail.Store(tail)
}
