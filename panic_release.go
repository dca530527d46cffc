//go:build !wstask_debug

package wstask

// maybeReraiseInDebugBuild is a no-op in release builds: a panicking
// task is recovered, logged, and the worker carries on (spec §7).
func maybeReraiseInDebugBuild(err *PanicError) {}
