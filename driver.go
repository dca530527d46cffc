package wstask

import "time"

// Driver is the park/unpark primitive a worker blocks on when it has no
// work of its own and the rest of the pool has nothing to steal (spec
// §4.8). It generalizes the scheduler's I/O-or-timer wait: the default
// implementation below is a plain channel, mirroring the corpus's own
// fast-path channel wakeup (fastWakeupCh) used whenever no registered
// I/O file descriptors are in play; the iodriver subpackage supplies
// epoll/kqueue-backed alternatives for callers that want the worker pool
// to double as an I/O reactor.
type Driver interface {
	// Park blocks the calling worker until Unpark is called or shutdown
	// triggers.
	Park() error

	// ParkTimeout behaves like Park but also returns once timeout
	// elapses. A zero timeout polls without sleeping, letting any
	// driver-owned I/O/timer source dispatch ready events (spec §4.5's
	// maintenance tick).
	ParkTimeout(timeout time.Duration) error

	// Unpark wakes one parked worker, if any are parked. Implementations
	// must make this safe to call from any goroutine, including from
	// inside another worker's Run.
	Unpark()

	// Shutdown releases any OS resources (epoll/kqueue fds, self-pipe)
	// held by the driver. Called once, from the last worker through
	// shutdown (spec §4.9).
	Shutdown() error
}

// channelDriver is the default, portable Driver: a single buffered
// channel doubles as both the wake signal and the "someone already
// pending" debounce, the same trick the corpus's fastWakeupCh plays for
// its own no-I/O-registered fast path.
type channelDriver struct {
	wake chan struct{}
}

// NewChannelDriver returns the default Driver: no syscalls, just a
// buffered channel. Suitable whenever the scheduler's tasks do their own
// I/O off-thread (e.g. via goroutines reporting back through Schedule)
// rather than asking the worker pool to poll file descriptors directly.
func NewChannelDriver() Driver {
	return &channelDriver{wake: make(chan struct{}, 1)}
}

func (d *channelDriver) Park() error {
	return d.ParkTimeout(maxTimeoutPark)
}

func (d *channelDriver) ParkTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		select {
		case <-d.wake:
		default:
		}
		return nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-d.wake:
	case <-t.C:
	}
	return nil
}

func (d *channelDriver) Unpark() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *channelDriver) Shutdown() error {
	d.Unpark()
	return nil
}
