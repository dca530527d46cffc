package wstask

import (
	"time"
)

// maxLIFOPollsPerTick caps how many consecutive LIFO-slot tasks a worker
// will run within a single run_task burst before forcing the slot closed
// for the rest of the tick. Without this cap, a ping-pong pair of tasks
// that repeatedly reschedule each other into the LIFO slot can starve
// every other task on the worker (spec §4.6).
const maxLIFOPollsPerTick = 3

// worker drives one Core through the scheduler's run loop. It holds no
// state of its own beyond a reference to the Scheduler and the Core it
// currently owns — the Core itself, and the Scheduler's Shared, carry
// everything else.
type worker struct {
	sched *Scheduler
	core  *Core
}

// run is the worker's main loop: acquire a Core, then alternate between
// draining local work, stealing, and parking until shutdown. Grounded on
// the scheduler this spec distills from (Context::run), rendered as a
// single Go goroutine instead of a Context/Core split across a
// thread-local cell, since goroutines don't need a RefCell hand-off to
// observe a "core was stolen" mid-poll.
func (w *worker) run() {
	sched := w.sched
	core := sched.shared.acquireCore()
	if core == nil {
		return // scheduler shutting down before this worker ever started
	}
	core.sched = sched
	w.core = core

	sched.registerWorkerThread(core)
	defer sched.unregisterWorkerThread()

	for !sched.shared.isShuttingDown() {
		core.tick++

		core = w.maintenance(core)

		if task, ok := w.nextTask(core); ok {
			next, stolen := w.runTask(core, task)
			if stolen {
				return // hand-off: another goroutine now owns this Core
			}
			core = next
			continue
		}

		if task, ok := w.stealWork(core); ok {
			next, stolen := w.runTask(core, task)
			if stolen {
				return
			}
			core = next
			continue
		}

		core = w.park(core)
	}

	sched.preShutdown(core)
	sched.shutdownCore(core)
}

// nextTask implements spec §4.5's next-task selection: every
// global_queue_interval ticks it probes the injection queue first (and
// retunes that interval from recent poll latency); otherwise it checks
// the LIFO slot and run queue, falling back to a sized pull from the
// injection queue only once local work is exhausted.
func (w *worker) nextTask(core *Core) (Task, bool) {
	if core.globalQueueInterval != 0 && core.tick%core.globalQueueInterval == 0 {
		core.globalQueueInterval = core.stats.tunedGlobalQueueInterval(core.globalQueueInterval)
		if t, ok := w.sched.shared.injection.pop(); ok {
			return t, true
		}
		return w.nextLocalTask(core)
	}

	if t, ok := w.nextLocalTask(core); ok {
		return t, true
	}

	inj := w.sched.shared.injection
	if inj.isEmpty() {
		return nil, false
	}

	cap := core.runQueue.remainingSlots()
	if half := core.runQueue.maxCapacity() / 2; half < cap {
		cap = half
	}
	n := inj.len()/len(w.sched.shared.remotes) + 1
	if n > cap {
		n = cap
	}
	if n <= 0 {
		return nil, false
	}

	tasks := inj.popN(n)
	if len(tasks) == 0 {
		return nil, false
	}
	first := tasks[0]
	if rest := tasks[1:]; len(rest) > 0 {
		core.runQueue.pushBatch(rest)
	}
	return first, true
}

func (w *worker) nextLocalTask(core *Core) (Task, bool) {
	if core.lifoSlot != nil {
		t := core.lifoSlot
		core.lifoSlot = nil
		return t, true
	}
	return core.runQueue.pop()
}

// stealWork implements spec §4.7: admit into the searching state (capped
// at under half the pool), then probe peers in a random rotation,
// stealing up to half of the first stealable queue found. Falls back to
// one more injection-queue probe before giving up.
func (w *worker) stealWork(core *Core) (Task, bool) {
	if !w.transitionToSearching(core) {
		return nil, false
	}

	remotes := w.sched.shared.remotes
	num := len(remotes)
	if num > 1 {
		start := core.rand.Intn(num)
		for i := 0; i < num; i++ {
			idx := (start + i) % num
			if idx == core.index {
				continue
			}
			if t, ok := remotes[idx].runQueue.stealInto(core.runQueue); ok {
				core.stats.recordSteal(1)
				return t, true
			}
		}
	}

	return w.sched.shared.injection.pop()
}

func (w *worker) transitionToSearching(core *Core) bool {
	if !core.isSearching {
		core.isSearching = w.sched.shared.idle.transitionWorkerToSearching()
	}
	return core.isSearching
}

func (w *worker) transitionFromSearching(core *Core) {
	if !core.isSearching {
		return
	}
	core.isSearching = false
	if w.sched.shared.idle.transitionWorkerFromSearching() {
		w.sched.shared.notifyParkedLocal()
	}
}

// runTask polls task to completion or suspension, then keeps polling
// whatever lands in the LIFO slot (up to maxLIFOPollsPerTick times) before
// returning control to the main loop — the burst-then-yield behavior
// that gives the LIFO slot its locality benefit without letting it
// starve the rest of the run queue (spec §4.6). The second return value
// reports whether the Core was lost mid-burst to a block-in-place
// hand-off, in which case the caller must stop driving it.
func (w *worker) runTask(core *Core, task Task) (*Core, bool) {
	task = w.sched.assertOwner(task)

	w.transitionFromSearching(core)
	core.resetBudget(w.sched.cfg)

	lifoPolls := 0
	for {
		start := time.Now()
		core.sched = w.sched
		w.pollTask(core, task)
		core.stats.recordPoll(time.Since(start))

		if core.detached {
			// BlockInPlace (blocking.go) already spawned a replacement
			// worker for this Core; this goroutine stops driving it.
			return nil, true
		}

		for _, d := range core.takeDeferred() {
			core.runQueue.pushBack(d, w.sched.shared.injection)
		}

		next := core.lifoSlot
		if next == nil {
			core.resetLIFOEnabled(w.sched.cfg)
			return core, false
		}

		if core.budget <= 0 {
			core.lifoSlot = nil
			core.runQueue.pushBack(next, w.sched.shared.injection)
			return core, false
		}

		lifoPolls++
		if lifoPolls >= maxLIFOPollsPerTick {
			core.lifoEnabled = false
		}

		core.lifoSlot = nil
		task = w.sched.assertOwner(next)
	}
}

// pollTask recovers a panicking task poll (spec §7's WorkerPanic kind):
// in release builds this logs and lets the worker continue; a
// wstask_debug build instead re-panics, matching the "abort the process
// in debug builds" behavior of the scheduler this spec distills from.
func (w *worker) pollTask(core *Core, task Task) {
	defer func() {
		if r := recover(); r != nil {
			w.sched.handleTaskPanic(task, r)
		}
	}()
	task.Run(core)
}

// maintenance runs every event_interval ticks: a zero-timeout park to
// let the driver dispatch any ready events, followed by whatever
// periodic bookkeeping the scheduler wants to perform.
func (w *worker) maintenance(core *Core) *Core {
	if core.tick%uint32(w.sched.cfg.eventInterval) != 0 {
		return core
	}
	core = w.parkTimeout(core, 0)
	core.lifoEnabled = !w.sched.cfg.disableLIFOSlot
	if w.sched.cfg.metricsEnabled {
		core.stats.submit(w.sched.shared.workerMetrics[core.index])
	}
	return core
}

// park puts the worker to sleep on the Driver once the idle coordinator
// confirms it is safe to (no local work raced in since the last check).
// It returns after a single wake of any kind (an Unpark, a spurious wake,
// or the driver's own timeout), or at once if shutdown is observed; the
// run loop then looks for work again and parks anew if it finds none
// (spec §4.8).
func (w *worker) park(core *Core) *Core {
	if fn := w.sched.cfg.beforePark; fn != nil {
		fn()
	}

	if core.lifoSlot == nil && !core.runQueue.hasTasks() && !core.isTraced {
		isLastSearcher := w.sched.shared.idle.transitionWorkerToParked(uint32(core.index), core.isSearching)
		core.isSearching = false

		if isLastSearcher && w.rescanForWork() {
			// Scenario S6 (spec §4.8): a task may have been pushed to the
			// injection queue or a peer's run queue between this worker's
			// last empty-queue check and the idle coordinator confirming
			// it was the last searcher. With no other worker searching,
			// nobody else would notice that task and wake this one, so it
			// must undo the parked transition and go straight back to
			// looking for work instead of actually blocking on the Driver.
			w.sched.shared.idle.transitionWorkerFromParked(uint32(core.index))
			core.isSearching = true
			w.sched.shared.notifyParkedLocal()
		} else {
			for !w.sched.shared.isShuttingDown() && !core.isTraced {
				core.stats.recordPark()
				core = w.parkFull(core)
				core.lifoEnabled = !w.sched.cfg.disableLIFOSlot

				if w.sched.shared.idle.transitionWorkerFromParked(uint32(core.index)) {
					core.isSearching = true
					break
				}
			}

			if isLastSearcher {
				w.sched.shared.notifyParkedLocal()
			}
		}
	}

	if fn := w.sched.cfg.afterUnpark; fn != nil {
		fn()
	}
	return core
}

// rescanForWork re-checks the injection queue and every peer's run queue
// for work that might have arrived since this worker last found itself
// empty. Only consulted when this worker is about to become the last
// searcher going idle (scenario S6, spec §4.8's park race).
func (w *worker) rescanForWork() bool {
	if !w.sched.shared.injection.isEmpty() {
		return true
	}
	for _, r := range w.sched.shared.remotes {
		if r.runQueue.isStealable() {
			return true
		}
	}
	return false
}

// parkTimeout blocks on the Driver for a zero timeout — a poll, not a
// sleep — used by maintenance to let any driver-owned I/O/timer source
// dispatch ready events without actually putting the worker to sleep.
func (w *worker) parkTimeout(core *Core, timeout time.Duration) *Core {
	_ = w.sched.shared.driver.ParkTimeout(timeout)
	w.notifyIfStealable(core)
	return core
}

// parkFull blocks on the Driver with no timeout, used by the actual
// parking loop once the idle coordinator has confirmed there is nothing
// left to do.
func (w *worker) parkFull(core *Core) *Core {
	_ = w.sched.shared.driver.Park()
	w.notifyIfStealable(core)
	return core
}

// notifyIfStealable wakes a peer if this worker is not searching but is
// sitting on stealable work — work that materialized, e.g. from a
// completed steal batch, between the last check and now.
func (w *worker) notifyIfStealable(core *Core) {
	if !core.isSearching && core.runQueue.isStealable() {
		w.sched.shared.notifyParkedLocal()
	}
}
