package wstask

import (
	"sync"
	"sync/atomic"
)

// Remote is the portion of a worker's state visible to every other
// worker: just enough to let a peer steal from its run queue. Everything
// else about a Core stays private to whichever goroutine currently owns
// it.
type Remote struct {
	runQueue *localQueue
}

// Synced is the scheduler state gated behind Shared.mu: the pool of
// Cores not currently owned by any running worker goroutine (either
// idle between acquisitions, or handed back during a block-in-place
// transfer or shutdown), plus the shutdown latch.
type Synced struct {
	// cores holds every Core not currently being driven by a worker
	// goroutine. A fresh worker (after a block-in-place hand-off, or at
	// startup) acquires one from here; shutdown drains this slice down
	// to zero before declaring the scheduler stopped.
	cores []*Core

	shutdown bool
}

// Shared is the state visible to every worker of a Scheduler: the
// per-worker Remote handles used for stealing, the injection queue, the
// idle coordinator, the owned-tasks registry, and the mutex-guarded
// Synced pool of off-duty Cores. Field-for-field grounded on the
// scheduler this spec distills from (its own Shared/Synced split), with
// the condition-variable parking primitive generalized to the pluggable
// Driver interface.
type Shared struct {
	remotes []*Remote

	injection *injectionQueue
	idle      *idleCoordinator
	owned     *ownedTasks

	mu     sync.Mutex
	cond   *sync.Cond
	synced Synced

	driver Driver
	cfg    *config

	metrics       *SchedulerMetrics
	workerMetrics []*WorkerMetrics

	// shuttingDown lets any live Core — including one handed off mid-flight
	// by BlockInPlace, which copies the Core struct rather than mutating a
	// shared one — observe shutdown without needing its own copy of the
	// flag kept in sync. A per-Core bool would go stale the instant a
	// struct copy outlives the write that set it; this is checked directly
	// off Shared instead, so every copy of every Core for this scheduler
	// reads the one true latch.
	shuttingDown atomic.Bool
}

func newShared(cfg *config, remotes []*Remote) *Shared {
	s := &Shared{
		remotes:       remotes,
		injection:     newInjectionQueue(),
		idle:          newIdleCoordinator(len(remotes)),
		owned:         newOwnedTasks(),
		driver:        cfg.driver,
		cfg:           cfg,
		metrics:       &SchedulerMetrics{},
		workerMetrics: make([]*WorkerMetrics, len(remotes)),
	}
	for i := range s.workerMetrics {
		s.workerMetrics[i] = &WorkerMetrics{}
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// notifyParkedLocal wakes one parked worker, preferring the idle
// coordinator's bookkeeping over a broadcast so only one sleeper is
// disturbed per notification (spec §4.8).
func (s *Shared) notifyParkedLocal() {
	if _, ok := s.idle.workerToNotify(); ok {
		s.driver.Unpark()
	}
}

// notifyAll wakes every parked worker; used for shutdown, where every
// sleeper must observe the signal rather than just one.
func (s *Shared) notifyAll() {
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
	for i := 0; i < len(s.remotes); i++ {
		s.driver.Unpark()
	}
}

// pushRemote submits task to the injection queue and wakes a parked
// worker, matching the "remote schedule" path of spec §4.10.
func (s *Shared) pushRemote(task Task) error {
	if err := s.injection.push(task); err != nil {
		return err
	}
	s.metrics.recordInjectionPush()
	s.notifyParkedLocal()
	return nil
}

// returnCore hands a Core back to the idle pool and wakes anything
// waiting in acquireCore.
func (s *Shared) returnCore(core *Core) {
	s.mu.Lock()
	s.synced.cores = append(s.synced.cores, core)
	s.cond.Signal()
	s.mu.Unlock()
}

// acquireCore blocks until a Core is available in the idle pool (or the
// scheduler is shutting down, in which case it returns nil).
func (s *Shared) acquireCore() *Core {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.synced.cores) == 0 {
		if s.synced.shutdown {
			return nil
		}
		s.cond.Wait()
	}
	n := len(s.synced.cores) - 1
	core := s.synced.cores[n]
	s.synced.cores[n] = nil
	s.synced.cores = s.synced.cores[:n]
	return core
}

// beginShutdown marks the scheduler as shutting down and wakes anything
// blocked in acquireCore so it can observe the latch and return nil.
func (s *Shared) beginShutdown() {
	s.shuttingDown.Store(true)
	s.mu.Lock()
	s.synced.shutdown = true
	s.cond.Broadcast()
	s.mu.Unlock()
	s.injection.close()
}

// isShuttingDown reports whether shutdown has begun, lock-free — the
// single source of truth every Core (and every copy of one produced by a
// block-in-place hand-off) checks via Core.IsShutdown.
func (s *Shared) isShuttingDown() bool { return s.shuttingDown.Load() }

// allCoresReturned reports whether every worker's Core has made it back
// into the idle pool, the precondition for the final shutdown cleanup
// (spec §4.9).
func (s *Shared) allCoresReturned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.synced.cores) == len(s.remotes)
}

func (s *Shared) takeAllCores() []*Core {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.synced.cores
	s.synced.cores = nil
	return out
}
