package wstask

import "sync"

// ownedTasks tracks every task the scheduler is currently responsible
// for — from the moment it is accepted (by Spawn or a reschedule) until
// it completes and is released. It exists so shutdown can positively
// account for every live task rather than trusting the queues alone
// (spec §4.9's "close owned-tasks, then drain queues, then notify
// whichever task observes the registry is both closed and empty").
//
// Grounded on the corpus's own registry (a map keyed by id, guarded by a
// mutex); simplified from its weak-pointer/ring-buffer scavenging scheme
// since here the scheduler itself — not a GC'd promise handle — owns the
// lifetime of every entry, so there is nothing to scavenge.
type ownedTasks struct {
	mu     sync.Mutex
	live   map[Task]struct{}
	closed bool
}

func newOwnedTasks() *ownedTasks {
	return &ownedTasks{live: make(map[Task]struct{})}
}

// bind registers task as live. Returns ErrOwnedClosed if the registry has
// already been closed for shutdown, in which case the caller must treat
// the task as cancelled rather than schedule it.
func (o *ownedTasks) bind(task Task) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrOwnedClosed
	}
	o.live[task] = struct{}{}
	return nil
}

// remove releases task from the registry, reporting whether it was
// still tracked (false means it was already removed — e.g. raced with
// closeAndShutdownAll).
func (o *ownedTasks) remove(task Task) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.live[task]; !ok {
		return false
	}
	delete(o.live, task)
	return true
}

// assertOwner reports whether task is currently tracked as live, without
// mutating the registry. Used by debug assertions and tests.
func (o *ownedTasks) assertOwner(task Task) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.live[task]
	return ok
}

// len returns the number of currently-live tasks.
func (o *ownedTasks) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.live)
}

// isEmpty reports whether no tasks are currently tracked.
func (o *ownedTasks) isEmpty() bool {
	return o.len() == 0
}

// isClosed reports whether the registry has been closed.
func (o *ownedTasks) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// closeAndShutdownAll marks the registry closed (rejecting further
// binds) and returns the snapshot of tasks that were still live at that
// instant, clearing the internal set. The caller (preShutdown, on
// whichever worker reaches shutdown first; later calls get nothing back)
// is responsible for giving each returned task a final, non-rescheduling
// chance to observe cancellation.
func (o *ownedTasks) closeAndShutdownAll() []Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	if len(o.live) == 0 {
		return nil
	}
	out := make([]Task, 0, len(o.live))
	for t := range o.live {
		out = append(out, t)
	}
	clear(o.live)
	return out
}
