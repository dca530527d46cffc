package wstask

// Core is the per-worker state handed off between a worker's run loop and
// (during a block-in-place hand-off, spec §4.11) whichever goroutine
// picks it back up. Exactly one goroutine holds a given Core at any
// instant; every field below is safe to touch without synchronization
// for exactly that reason — field-for-field grounded on the scheduler
// this spec distills from.
type Core struct { // betteralign:ignore
	// index identifies this core's Remote/WorkerMetrics slot in Shared.
	index int

	// tick counts worker-loop iterations since this Core started (one per
	// iteration, however many polls a LIFO burst makes); used to schedule
	// periodic maintenance (spec §4.5's event_interval check).
	tick uint32

	// lifoSlot holds at most one task scheduled directly onto this
	// worker (spec §4.1). Checked before the run queue.
	lifoSlot Task

	// lifoEnabled toggles whether locally-scheduled tasks go to lifoSlot
	// or to the back of runQueue. Reset from config at the top of every
	// maintenance tick.
	lifoEnabled bool

	// runQueue is this worker's bounded local run queue.
	runQueue *localQueue

	// isSearching mirrors idleCoordinator's view of whether this worker
	// currently counts toward the searching budget; kept local so a
	// worker never has to ask the coordinator whether it, personally, is
	// searching.
	isSearching bool

	// isTraced is reserved for future diagnostic dumps; tracked so a
	// worker in that state is kept from parking.
	isTraced bool

	// stats accumulates this worker's runtime statistics (spec §4.5's
	// adaptive global_queue_interval retuning feeds off these).
	stats workerStats

	// globalQueueInterval is how many ticks elapse between a forced
	// injection-queue probe, retuned periodically from stats.
	globalQueueInterval uint32

	// rand selects the starting peer for steal attempts (spec §4.7).
	rand *FastRand

	// budget is the cooperative poll budget exposed to the running
	// task via Budget/ConsumeBudget. Suspension semantics beyond that
	// belong entirely to the task collaborator (spec §9 Open Question).
	budget int

	// deferred holds tasks a collaborator asked to run only once the
	// current LIFO burst yields, i.e. after this poll returns (the
	// "Defer" supplemental feature — see SPEC_FULL.md). Drained by runTask
	// after every task poll and pushed to the back of the run queue.
	deferred []Task

	// detached is set by BlockInPlace to tell the worker loop driving
	// this Core to stop after the current task poll returns, since a
	// replacement worker goroutine has already been spawned to take
	// over (spec §4.11).
	detached bool

	sched *Scheduler
}

func newCore(index int, cfg *config, seed uint64) *Core {
	return &Core{
		index:               index,
		lifoEnabled:         !cfg.disableLIFOSlot,
		runQueue:            newLocalQueue(),
		stats:               newWorkerStats(),
		globalQueueInterval: cfg.globalQueueInterval,
		rand:                NewFastRand(seed),
		budget:              cfg.defaultTaskBudget,
	}
}

// Index returns this worker's stable index in [0, workerCount).
func (c *Core) Index() int { return c.index }

// IsShutdown reports whether this Core's worker has observed scheduler
// shutdown. A task still live when shutdown begins gets exactly one
// final Run with this already true — its cue to treat the poll as a
// cancellation rather than a normal resumption (spec §4.9). Reads through
// to Shared rather than a field on Core itself: BlockInPlace hands off a
// struct copy of Core (see blocking.go), and a bool copied at hand-off
// time would freeze whatever shutdown state happened to be true at that
// instant instead of tracking it afterward.
func (c *Core) IsShutdown() bool { return c.sched != nil && c.sched.shared.isShuttingDown() }

// Scheduler returns the scheduler this Core's worker belongs to, so a
// running Task can reach Schedule (to requeue itself) or the logger.
func (c *Core) Scheduler() *Scheduler { return c.sched }

// Budget returns the polls remaining in the current cooperative budget
// window (spec §9). A task collaborator that wants to yield back to the
// worker loop on a long-running synchronous stretch should call
// ConsumeBudget and reschedule itself (via Schedule.ScheduleTask with
// isYield=true) once it reaches zero.
func (c *Core) Budget() int { return c.budget }

// ConsumeBudget decrements the budget by n (floored at zero) and returns
// the remainder.
func (c *Core) ConsumeBudget(n int) int {
	c.budget -= n
	if c.budget < 0 {
		c.budget = 0
	}
	return c.budget
}

// resetBudget restores the budget to the scheduler's configured default,
// called once at the start of each runTask burst (not before every poll
// within the burst).
func (c *Core) resetBudget(cfg *config) { c.budget = cfg.defaultTaskBudget }

// resetLIFOEnabled restores lifoEnabled from config, undoing any
// per-burst disable triggered by maxLIFOPollsPerTick (spec §4.6).
func (c *Core) resetLIFOEnabled(cfg *config) { c.lifoEnabled = !cfg.disableLIFOSlot }

// Defer schedules task to run only after the currently-executing task's
// Run method returns, bypassing the LIFO slot so the deferring task
// cannot starve its own continuation out of an otherwise-idle worker.
// Supplements the distilled spec with a primitive the original scheduler
// exposes as cooperative yield-and-chain.
func (c *Core) Defer(task Task) {
	c.deferred = append(c.deferred, task)
}

func (c *Core) takeDeferred() []Task {
	if len(c.deferred) == 0 {
		return nil
	}
	out := c.deferred
	c.deferred = nil
	return out
}
