package wstask

import (
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// config holds the resolved configuration for a Scheduler. Field names
// follow the option names enumerated in spec §6.
type config struct {
	workerCount          int
	disableLIFOSlot      bool
	eventInterval        uint32
	globalQueueInterval  uint32
	beforePark           func()
	afterUnpark          func()
	seedGenerator        func() uint64
	driver               Driver
	blockingSpawner      BlockingSpawner
	logger               *logiface.Logger[*stumpy.Event]
	metricsEnabled       bool
	defaultTaskBudget    int
}

// Option configures a Scheduler at construction time.
type Option interface {
	applyOption(*config)
}

type optionFunc func(*config)

func (f optionFunc) applyOption(c *config) { f(c) }

// WithWorkerCount sets the fixed number of worker goroutines. Must be a
// positive integer; defaults to runtime.GOMAXPROCS(0).
func WithWorkerCount(n int) Option {
	return optionFunc(func(c *config) {
		if n > 0 {
			c.workerCount = n
		}
	})
}

// WithDisableLIFOSlot disables the per-core LIFO slot optimization; every
// locally-scheduled task is pushed to the back of the run queue instead.
func WithDisableLIFOSlot(disabled bool) Option {
	return optionFunc(func(c *config) { c.disableLIFOSlot = disabled })
}

// WithEventInterval sets the number of ticks between maintenance cycles
// (stats submission, zero-timeout driver poll, shutdown/trace re-check).
func WithEventInterval(n uint32) Option {
	return optionFunc(func(c *config) {
		if n > 0 {
			c.eventInterval = n
		}
	})
}

// WithGlobalQueueInterval sets the initial number of ticks between
// injection-queue-first probes. It is adaptively retuned from per-worker
// poll-latency stats thereafter (spec §9). Values below 2 are ignored.
func WithGlobalQueueInterval(n uint32) Option {
	return optionFunc(func(c *config) {
		if n >= 2 {
			c.globalQueueInterval = n
		}
	})
}

// WithBeforePark sets a hook invoked immediately before a worker parks.
func WithBeforePark(fn func()) Option {
	return optionFunc(func(c *config) { c.beforePark = fn })
}

// WithAfterUnpark sets a hook invoked immediately after a worker unparks.
func WithAfterUnpark(fn func()) Option {
	return optionFunc(func(c *config) { c.afterUnpark = fn })
}

// WithSeedGenerator sets the per-worker FastRand seed source. Defaults to a
// seed derived from crypto/rand mixed with the worker index.
func WithSeedGenerator(fn func() uint64) Option {
	return optionFunc(func(c *config) { c.seedGenerator = fn })
}

// WithDriver sets the I/O/timer park primitive. Defaults to the channel
// based driver (see the iodriver package for syscall-backed alternatives).
func WithDriver(d Driver) Option {
	return optionFunc(func(c *config) {
		if d != nil {
			c.driver = d
		}
	})
}

// WithBlockingSpawner sets the block-in-place hand-off collaborator.
// Defaults to NewGoroutineBlockingSpawner().
func WithBlockingSpawner(s BlockingSpawner) Option {
	return optionFunc(func(c *config) {
		if s != nil {
			c.blockingSpawner = s
		}
	})
}

// WithLogger attaches a structured logger (logiface over the stumpy
// backend) to the scheduler and every worker. Defaults to a disabled
// logger (LevelDisabled), matching the cost-free default of the corpus's
// own logging facade.
func WithLogger(l *logiface.Logger[*stumpy.Event]) Option {
	return optionFunc(func(c *config) {
		if l != nil {
			c.logger = l
		}
	})
}

// WithMetrics enables scheduler- and worker-level metrics collection.
func WithMetrics(enabled bool) Option {
	return optionFunc(func(c *config) { c.metricsEnabled = enabled })
}

// WithTaskBudget sets the cooperative poll budget handed to Core.Budget()
// at the start of every LIFO burst (spec §9: suspension-point semantics
// belong to the task collaborator; the scheduler only owns the value).
func WithTaskBudget(n int) Option {
	return optionFunc(func(c *config) {
		if n > 0 {
			c.defaultTaskBudget = n
		}
	})
}

func resolveConfig(opts []Option) *config {
	c := &config{
		workerCount:         defaultWorkerCount(),
		eventInterval:       61,
		globalQueueInterval: 61,
		defaultTaskBudget:   128,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyOption(c)
	}
	if c.logger == nil {
		c.logger = stumpy.L.New(logiface.WithLevel[*stumpy.Event](logiface.LevelDisabled)) // zero overhead by default
	}
	if c.driver == nil {
		c.driver = NewChannelDriver()
	}
	if c.blockingSpawner == nil {
		c.blockingSpawner = NewGoroutineBlockingSpawner()
	}
	if c.seedGenerator == nil {
		c.seedGenerator = defaultSeedGenerator()
	}
	return c
}

// maxTimeoutPark is the cap applied when a worker parks on the driver
// without a specific deadline in mind (no pending timers known to the
// core). It bounds how long a park can go unnoticed by tests/hooks.
const maxTimeoutPark = 10 * time.Second
