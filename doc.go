// Package wstask implements the core of a multi-threaded work-stealing task
// scheduler: a fixed pool of worker goroutines that run many lightweight,
// cooperatively-scheduled [Task] values, distributing them fairly via a
// per-worker run queue, a global injection queue, a LIFO-slot locality
// optimization, and a work-stealing/idle-parking protocol.
//
// # Architecture
//
// Each worker owns a [Core] — the scheduler's per-worker mutable state
// (tick counter, LIFO slot, run queue handle, RNG, flags) — for as long as
// it is actively driving the scheduler loop. Cores start in a shared,
// mutex-guarded pool ([Synced]) from which each worker acquires one. A
// worker keeps its Core while parked; a Core goes back to the pool only on
// a block-in-place hand-off or at shutdown, and shutdown collects every
// Core in that same pool (there is no separate shutdown pool). Tasks
// submitted from outside a
// worker, or overflowing a worker's local queue, land in the injection
// queue; tasks submitted from a worker go to that worker's local queue or
// LIFO slot.
//
// # External collaborators
//
// The scheduler consumes three narrow external interfaces: [Task] (the
// unit of work), [Driver] (a pluggable "park with events" primitive), and
// [BlockingSpawner] (handles block-in-place hand-off). Default
// implementations of [Driver] are provided by the sibling iodriver
// package; a default [BlockingSpawner] is provided by this package.
package wstask
