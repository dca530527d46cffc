//go:build darwin

package iodriver

import (
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// kqueueDriver parks a worker on kevent against a self-pipe's read end,
// the same wake primitive the corpus falls back to on Darwin (no
// eventfd there). Grounded on poller_darwin.go (kqueue FastPoller) and
// wakeup_darwin.go (self-pipe createWakeFd), narrowed to a single wake
// source.
type kqueueDriver struct {
	kq       int
	readFd   int
	writeFd  int

	mu     sync.Mutex
	closed bool
}

// New returns the default concrete Driver for darwin: kqueue plus a
// self-pipe wake source.
func New() (*kqueueDriver, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	var fds [2]int
	if err := syscall.Pipe(fds[:]); err != nil {
		_ = unix.Close(kq)
		return nil, err
	}
	_ = syscall.SetNonblock(fds[0], true)
	_ = syscall.SetNonblock(fds[1], true)

	ev := unix.Kevent_t{
		Ident:  uint64(fds[0]),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD | unix.EV_ENABLE,
	}
	if _, err := unix.Kevent(kq, []unix.Kevent_t{ev}, nil, nil); err != nil {
		_ = unix.Close(kq)
		_ = syscall.Close(fds[0])
		_ = syscall.Close(fds[1])
		return nil, err
	}

	return &kqueueDriver{kq: kq, readFd: fds[0], writeFd: fds[1]}, nil
}

func (d *kqueueDriver) Park() error {
	return d.ParkTimeout(-1)
}

func (d *kqueueDriver) ParkTimeout(timeout time.Duration) error {
	var ts *unix.Timespec
	if timeout >= 0 {
		spec := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &spec
	}
	var events [8]unix.Kevent_t
	for {
		n, err := unix.Kevent(d.kq, nil, events[:], ts)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		d.drainWake(events[:n])
		return nil
	}
}

func (d *kqueueDriver) drainWake(events []unix.Kevent_t) {
	for _, ev := range events {
		if int(ev.Ident) != d.readFd {
			continue
		}
		var buf [64]byte
		for {
			_, err := syscall.Read(d.readFd, buf[:])
			if err != nil {
				break
			}
		}
	}
}

func (d *kqueueDriver) Unpark() {
	_, _ = syscall.Write(d.writeFd, []byte{1})
}

func (d *kqueueDriver) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	_ = syscall.Close(d.readFd)
	_ = syscall.Close(d.writeFd)
	return unix.Close(d.kq)
}
