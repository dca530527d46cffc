package wstask

// Task is a unit of work polled to completion or its next suspension point.
//
// Implementations are opaque to the scheduler: how a task carries its own
// waker, reference count, and drop semantics is entirely up to the
// collaborator. The scheduler only ever holds a Task value that has already
// been notified (i.e. is ready to run).
//
// Task implementations must be comparable — in practice a pointer type —
// since the owned-tasks registry keys live tasks by identity.
type Task interface {
	// Run polls the task once. If the task suspends rather than completes,
	// it is responsible for rescheduling itself (via the Schedule
	// collaborator reachable from core.Scheduler()) when it becomes ready
	// again. Run must not block; cooperative suspension points are a
	// matter between the task and its driver/waker, not the scheduler.
	//
	// A task still live when shutdown begins gets exactly one more Run,
	// with core.IsShutdown() already true — its cue to tear down and
	// return rather than reschedule itself (spec §4.9).
	Run(core *Core)
}

// Schedule is the interface a Task's waker uses to resubmit itself, and
// that the worker loop uses to release a completed task.
type Schedule interface {
	// Release removes a completed task from the owned-tasks registry,
	// returning the task and true if it was live, or false if it had
	// already been released (e.g. raced with shutdown cancellation).
	Release(task Task) (Task, bool)

	// ScheduleTask submits task for execution. If the calling goroutine is
	// a worker of this scheduler, the task is scheduled locally (LIFO slot
	// or run queue, per isYield and the core's lifo_enabled flag);
	// otherwise it is pushed to the injection queue and a parked peer is
	// notified.
	ScheduleTask(task Task, isYield bool)
}
