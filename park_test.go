package wstask

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWorker_ParkRescansBeforeBlockingWhenLastSearcher is the regression
// test for scenario S6 "Race to park" (spec §4.8, §8): the last searching
// worker must re-scan the injection queue and every peer's run queue for
// work that raced in ahead of it before it actually blocks on the Driver.
// Without that re-scan, a task pushed between this worker's last
// empty-queue check and idle.transitionWorkerToParked reporting it as the
// last searcher is a lost wakeup — nothing else is searching, so nobody
// ever calls Unpark for it, and park hangs until the driver's own timeout
// (or forever, on a driver with none) instead of noticing the task.
func TestWorker_ParkRescansBeforeBlockingWhenLastSearcher(t *testing.T) {
	cfg := resolveConfig(nil)
	cfg.workerCount = 1

	core := newCore(0, cfg, 1)
	shared := newShared(cfg, []*Remote{{runQueue: core.runQueue}})
	sched := &Scheduler{cfg: cfg, shared: shared, done: make(chan struct{})}
	core.sched = sched
	w := &worker{sched: sched, core: core}

	// Put the worker in the same state park() expects right before it
	// would become the last searcher going idle.
	require.True(t, shared.idle.transitionWorkerToSearching())
	core.isSearching = true

	// The race itself: a task lands on the injection queue after this
	// worker's own queues went empty but before park() finishes committing
	// to sleep.
	require.NoError(t, shared.injection.push(newTestTask()))

	done := make(chan *Core, 1)
	go func() { done <- w.park(core) }()

	select {
	case got := <-done:
		assert.True(t, got.isSearching, "rescan-and-resume must leave the worker searching again, not parked")
		assert.Equal(t, 1, shared.idle.numSearching())
		assert.Equal(t, 0, shared.idle.numParked())
	case <-time.After(2 * time.Second):
		t.Fatal("park blocked instead of rescanning for the task that raced in ahead of it (lost wakeup, scenario S6)")
	}
}
