package wstask

// BlockingSpawner runs a replacement worker goroutine so the pool keeps
// full strength while a worker detaches to run a long synchronous
// operation (spec §4.11's block-in-place hand-off). Implementations
// must call fn exactly once, on a goroutine the spawner owns the
// lifecycle of.
type BlockingSpawner interface {
	SpawnBlocking(fn func())
}

// goroutineBlockingSpawner is the default BlockingSpawner: every
// hand-off gets its own goroutine, unpooled. Matches the corpus's own
// preference for plain goroutines over a managed thread pool wherever a
// dedicated, short-lived worker is all that's needed.
type goroutineBlockingSpawner struct{}

// NewGoroutineBlockingSpawner returns the default BlockingSpawner.
func NewGoroutineBlockingSpawner() BlockingSpawner {
	return goroutineBlockingSpawner{}
}

func (goroutineBlockingSpawner) SpawnBlocking(fn func()) {
	go fn()
}

// BlockInPlace lets a Task, from within Run, signal that it is about to
// perform a long synchronous operation. The scheduler immediately spawns
// a replacement worker goroutine to keep serving the pool, and returns
// this Core straight to the idle pool so the replacement (or any other
// parked worker) can start driving it right away (spec §4.11). Callers
// must not touch core again after calling BlockInPlace — it may already
// be running on another goroutine by the time this returns.
func (c *Core) BlockInPlace() {
	if c.detached {
		return
	}
	c.detached = true
	sched := c.sched
	sched.spawnBlockingReplacement()
	handoff := *c
	handoff.detached = false
	sched.shared.returnCore(&handoff)
}
