package wstask

import "sync"

// idleCoordinator tracks how many workers are actively searching for work
// and which workers are currently parked, so the scheduler can decide
// whether a newly-scheduled task needs to wake a sleeper, and which
// sleeper to wake (spec §4.8). Grounded on the corpus's FastState-style
// CAS bookkeeping (state.go) combined with the transition_to/from
// searching/parked shape described in the scheduler this spec distills
// from (worker.rs's transition_worker_to_searching et al.) — this
// implementation tracks the same three states with plain mutex-guarded
// fields rather than a packed atomic, since the set of parked worker
// indices cannot be represented as a single machine word.
type idleCoordinator struct {
	mu         sync.Mutex
	numWorkers int
	searching  int
	sleepers   []uint32 // stack of parked worker indices
}

func newIdleCoordinator(numWorkers int) *idleCoordinator {
	return &idleCoordinator{numWorkers: numWorkers}
}

// transitionWorkerToSearching admits the calling worker into the
// searching state, but only if fewer than half the workers are already
// searching — capping the number of workers burning CPU hunting for
// steal targets at once (spec §4.7). Returns whether the worker is now
// searching.
func (c *idleCoordinator) transitionWorkerToSearching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.searching*2 >= c.numWorkers {
		return false
	}
	c.searching++
	return true
}

// transitionWorkerFromSearching removes the calling worker from the
// searching state, reporting whether it was the last searching worker.
// The caller uses that to decide whether to wake a peer: if the last
// searcher found work, nobody else is looking, so someone else should be
// woken in case more work remains.
func (c *idleCoordinator) transitionWorkerFromSearching() (wasLastSearcher bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.searching == 0 {
		return false
	}
	c.searching--
	return c.searching == 0
}

// transitionWorkerToParked records workerIndex as parked. If isSearching
// is true, it is first removed from the searching count; the return
// value reports whether this was the last searching worker transitioning
// out, which the caller uses to force one final queue scan before
// actually parking (spec §4.8's "last searcher re-checks everything").
func (c *idleCoordinator) transitionWorkerToParked(workerIndex uint32, isSearching bool) (isLastSearcher bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if isSearching {
		if c.searching > 0 {
			c.searching--
		}
		isLastSearcher = c.searching == 0
	}
	c.sleepers = append(c.sleepers, workerIndex)
	return isLastSearcher
}

// transitionWorkerFromParked removes workerIndex from the parked set (if
// present — workerToNotify may already have popped it, since the shared
// Driver wakes an arbitrary parked worker rather than the specific one
// workerToNotify named) and marks it searching, matching the rule that a
// freshly unparked worker always resumes in the searching state.
func (c *idleCoordinator) transitionWorkerFromParked(workerIndex uint32) (isSearching bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, idx := range c.sleepers {
		if idx == workerIndex {
			c.sleepers = append(c.sleepers[:i], c.sleepers[i+1:]...)
			break
		}
	}
	c.searching++
	return true
}

// workerToNotify pops one parked worker index, if any are parked, so the
// caller knows there is a sleeper worth waking. The popped index is not
// necessarily the one that actually wakes: unlike the per-worker parkers
// this is grounded on, every worker here blocks on the same shared
// Driver, so Unpark() may rouse any one of them. searching is therefore
// left untouched here; whichever worker actually wakes accounts for its
// own transition through transitionWorkerFromParked.
func (c *idleCoordinator) workerToNotify() (workerIndex uint32, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sleepers) == 0 {
		return 0, false
	}
	n := len(c.sleepers) - 1
	workerIndex = c.sleepers[n]
	c.sleepers = c.sleepers[:n]
	return workerIndex, true
}

func (c *idleCoordinator) numSearching() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searching
}

func (c *idleCoordinator) numParked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleepers)
}
