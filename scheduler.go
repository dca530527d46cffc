package wstask

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// Scheduler is a fixed-size pool of work-stealing worker goroutines. It
// implements Schedule, so a Task's waker can resubmit it without caring
// whether the resubmitting goroutine happens to be one of the
// Scheduler's own workers or an arbitrary external caller.
type Scheduler struct {
	cfg    *config
	shared *Shared
	logger *Logger

	// workerGoroutines maps a worker goroutine's id (via getGoroutineID,
	// generalized here from a single loopGoroutineID to one entry per
	// worker) to the *Core it is currently driving, so ScheduleTask can
	// tell a local reschedule from a remote one — and always reach the
	// live Core, not a stale one — without threading a context.Context
	// through every call site (spec §4.10). Keyed by goroutine id rather
	// than worker index because BlockInPlace (blocking.go) can swap which
	// Core a given index is backed by mid-flight: looking a worker up by
	// its own goroutine only ever reaches the Core it is actually
	// running, never a struct a hand-off has since abandoned.
	workerGoroutines sync.Map // uint64 -> *Core

	closeOnce sync.Once
	done      chan struct{}
}

// New builds and starts a Scheduler: cfg.workerCount worker goroutines,
// each looping per worker.go's run, until Close is called.
func New(opts ...Option) (*Scheduler, error) {
	cfg := resolveConfig(opts)
	if cfg.workerCount <= 0 {
		return nil, fmt.Errorf("wstask: worker count must be positive, got %d", cfg.workerCount)
	}

	remotes := make([]*Remote, cfg.workerCount)
	cores := make([]*Core, cfg.workerCount)
	for i := range cores {
		core := newCore(i, cfg, cfg.seedGenerator())
		cores[i] = core
		remotes[i] = &Remote{runQueue: core.runQueue}
	}

	sched := &Scheduler{
		cfg:    cfg,
		shared: newShared(cfg, remotes),
		logger: cfg.logger,
		done:   make(chan struct{}),
	}
	sched.shared.synced.cores = append(sched.shared.synced.cores, cores...)

	for i := 0; i < cfg.workerCount; i++ {
		go (&worker{sched: sched}).run()
	}

	return sched, nil
}

// Spawn submits task for execution. Called from outside any worker
// goroutine, it always goes through the injection queue; called from
// inside a worker (e.g. a task spawning a child task), it schedules
// locally via the LIFO slot or run queue, per spec §4.10.
func (s *Scheduler) Spawn(task Task) error {
	if err := s.shared.owned.bind(task); err != nil {
		return err
	}
	remote := !s.isWorkerThread()
	s.shared.metrics.recordSpawn(remote)
	if remote {
		if err := s.shared.pushRemote(task); err != nil {
			// Shutdown has closed the injection queue: cancel the task here.
			s.shared.owned.remove(task)
			return err
		}
		return nil
	}
	s.ScheduleTask(task, false)
	return nil
}

// ScheduleTask implements Schedule. isYield marks a task rescheduling
// itself after voluntarily giving up its turn (e.g. budget exhaustion);
// such tasks always go to the back of the run queue, never the LIFO
// slot, so a yielding task cannot immediately re-claim the worker ahead
// of everything already queued.
func (s *Scheduler) ScheduleTask(task Task, isYield bool) {
	if core, ok := s.currentWorkerCore(); ok {
		if !isYield && core.lifoEnabled {
			if prev := core.lifoSlot; prev != nil {
				core.runQueue.pushBack(prev, s.shared.injection)
			}
			core.lifoSlot = task
			return
		}
		core.runQueue.pushBack(task, s.shared.injection)
		return
	}

	if err := s.shared.pushRemote(task); err != nil {
		// Scheduler is shutting down; the task was never bound to a
		// worker so there is nothing further to release.
		s.shared.owned.remove(task)
	}
}

// Release implements Schedule: it removes task from the owned-tasks
// registry once its Run has returned for the final time (no further
// reschedule pending).
func (s *Scheduler) Release(task Task) (Task, bool) {
	if s.shared.owned.remove(task) {
		return task, true
	}
	return nil, false
}

// assertOwner is the local analogue of the owned-tasks registry's
// assert_owner call in the scheduler this spec distills from: a
// diagnostic no-op in the common case, it exists as the single place a
// future debug build could assert the task is still tracked.
func (s *Scheduler) assertOwner(task Task) Task { return task }

// spawnBlockingReplacement hands a fresh worker goroutine to the
// configured BlockingSpawner; it will block in acquireCore until some
// Core (often, eventually, the one just detached by BlockInPlace) is
// returned to the idle pool.
func (s *Scheduler) spawnBlockingReplacement() {
	s.cfg.blockingSpawner.SpawnBlocking(func() {
		(&worker{sched: s}).run()
	})
}

func (s *Scheduler) registerWorkerThread(core *Core) {
	s.workerGoroutines.Store(getGoroutineID(), core)
}

func (s *Scheduler) unregisterWorkerThread() {
	s.workerGoroutines.Delete(getGoroutineID())
}

func (s *Scheduler) isWorkerThread() bool {
	_, ok := s.currentWorkerCore()
	return ok
}

func (s *Scheduler) currentWorkerCore() (*Core, bool) {
	v, ok := s.workerGoroutines.Load(getGoroutineID())
	if !ok {
		return nil, false
	}
	return v.(*Core), true
}

// getGoroutineID returns the current goroutine's id, parsed out of a
// runtime.Stack dump. Generalizes the corpus's own single-loop-thread
// check (eventloop.Loop.isLoopThread/getGoroutineID) to a pool of N
// worker threads tracked in a sync.Map rather than one atomic field.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}

func (s *Scheduler) handleTaskPanic(task Task, r any) {
	err := &PanicError{Task: task, Value: r}
	if s.logger != nil {
		s.logger.Err().Err(err).Log("task panicked")
	}
	maybeReraiseInDebugBuild(err)
}

// preShutdown signals every owned task that shutdown has begun, and
// submits this worker's final stats (spec §4.9). Closing the owned-tasks
// registry happens exactly once across the whole pool (whichever worker
// gets there first); that worker alone receives the snapshot of tasks
// still live at that instant and gives each one a final poll so it can
// observe core.IsShutdown() and treat it as cancellation.
func (s *Scheduler) preShutdown(core *Core) {
	for _, task := range s.shared.owned.closeAndShutdownAll() {
		s.pollFinal(core, task)
	}
	if s.cfg.metricsEnabled {
		core.stats.submit(s.shared.workerMetrics[core.index])
	}
}

// pollFinal gives task its last poll during shutdown, with the same
// panic handling as an ordinary poll (spec §7).
func (s *Scheduler) pollFinal(core *Core, task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.handleTaskPanic(task, r)
		}
	}()
	task.Run(core)
}

// shutdownCore returns core to the idle pool; once every worker's Core
// has arrived, the last one in drains every local queue, shuts the
// Driver down, and drains the injection queue, completing the two-phase
// shutdown protocol described in spec §4.9.
func (s *Scheduler) shutdownCore(core *Core) {
	s.shared.returnCore(core)
	if !s.shared.allCoresReturned() {
		return
	}

	cores := s.shared.takeAllCores()
	if len(cores) == 0 {
		// Another worker saw the full pool at the same moment and already
		// took it; that worker performs the cleanup below.
		return
	}
	for _, c := range cores {
		for {
			if _, ok := c.runQueue.pop(); !ok {
				break
			}
		}
	}

	_ = s.shared.driver.Shutdown()

	for {
		if _, ok := s.shared.injection.pop(); !ok {
			break
		}
	}

	close(s.done)
}

// Close begins scheduler shutdown: the injection queue is closed (so no
// further remote Spawn succeeds), every parked worker is woken to
// observe is_shutdown, and Close blocks until every worker has drained
// and exited, or ctx is done first.
func (s *Scheduler) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.shared.beginShutdown()
		s.shared.notifyAll()
	})

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Metrics returns a point-in-time snapshot of scheduler- and per-worker
// statistics. Per-worker fields only reflect reality if WithMetrics(true)
// was set; otherwise they read zero (stats are only submitted into the
// shared WorkerMetrics slots during maintenance/shutdown when enabled).
func (s *Scheduler) Metrics() Metrics {
	workers := make([]WorkerMetrics, len(s.shared.workerMetrics))
	for i, wm := range s.shared.workerMetrics {
		workers[i] = wm.Snapshot()
	}
	return Metrics{
		SpawnCount:       s.shared.metrics.spawnCount.Load(),
		RemoteSpawnCount: s.shared.metrics.remoteSpawnCount.Load(),
		InjectionPushes:  s.shared.metrics.injectionPushes.Load(),
		InjectionQueued:  s.shared.injection.len(),
		OwnedTasks:       s.shared.owned.len(),
		Workers:          workers,
	}
}

var _ Schedule = (*Scheduler)(nil)
