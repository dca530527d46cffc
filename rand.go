package wstask

import (
	"crypto/rand"
	"encoding/binary"
	"runtime"
	"sync/atomic"
)

// FastRand is a small, allocation-free xorshift PRNG used for steal-target
// selection (spec §4.7). It is not cryptographically secure and is not
// safe for concurrent use — each Core owns exactly one, matching the
// single-owner discipline the rest of the Core enjoys.
//
// Grounded on the scheduler's own per-worker RNG need (see DESIGN.md):
// the pack carries no general-purpose ecosystem RNG suited to a
// performance-sensitive, allocation-free, per-goroutine generator, so this
// stays on a hand-rolled xorshift, the same choice the original scheduler
// this spec distills from makes for the identical purpose.
type FastRand struct {
	state uint64
}

// NewFastRand creates a FastRand seeded with the given non-zero seed. A
// zero seed is replaced with a fixed odd constant to avoid the degenerate
// all-zero xorshift state.
func NewFastRand(seed uint64) *FastRand {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &FastRand{state: seed}
}

// Next returns the next pseudo-random value, advancing the generator.
func (r *FastRand) Next() uint64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	r.state = x
	return x
}

// Intn returns a pseudo-random integer in [0, n). Panics if n <= 0.
func (r *FastRand) Intn(n int) int {
	if n <= 0 {
		panic("wstask: FastRand.Intn: n must be positive")
	}
	return int(r.Next() % uint64(n))
}

// defaultSeedGenerator returns a function producing seeds mixed from
// crypto/rand, matching the spirit of spec §6's seed_generator option
// without depending on a global, shared PRNG state.
func defaultSeedGenerator() func() uint64 {
	var counter atomic.Uint64
	return func() uint64 {
		var buf [8]byte
		seed := counter.Add(1)
		if _, err := rand.Read(buf[:]); err == nil {
			seed ^= binary.LittleEndian.Uint64(buf[:])
		}
		return seed
	}
}

// defaultWorkerCount mirrors the corpus convention of sizing worker pools
// from the number of schedulable CPUs.
func defaultWorkerCount() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return n
}
