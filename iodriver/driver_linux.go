//go:build linux

package iodriver

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// epollDriver parks a worker on epoll_wait against a single eventfd,
// rather than a full per-FD registration table: any goroutine can wake
// a parked worker by writing to the eventfd, exactly the primitive the
// scheduler's park/unpark contract needs. Grounded on the corpus's own
// FastPoller (poller_linux.go) plus its eventfd wake mechanism
// (wakeup_linux.go), narrowed to this single purpose.
type epollDriver struct {
	epfd   int
	wakeFd int

	mu     sync.Mutex
	closed bool
}

// New returns the default concrete Driver for linux: epoll plus an
// eventfd wake source.
func New() (*epollDriver, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}
	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, ev); err != nil {
		_ = unix.Close(epfd)
		_ = unix.Close(wakeFd)
		return nil, err
	}
	return &epollDriver{epfd: epfd, wakeFd: wakeFd}, nil
}

func (d *epollDriver) Park() error {
	return d.ParkTimeout(-1)
}

func (d *epollDriver) ParkTimeout(timeout time.Duration) error {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	var events [8]unix.EpollEvent
	for {
		n, err := unix.EpollWait(d.epfd, events[:], ms)
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

func (d *epollDriver) drainWake(events []unix.EpollEvent) {
	for _, ev := range events {
		if int(ev.Fd) != d.wakeFd {
			continue
		}
		var buf [8]byte
		for {
			_, err := unix.Read(d.wakeFd, buf[:])
			if err != nil {
				break
			}
		}
	}
}

func (d *epollDriver) Unpark() {
	var val [8]byte
	val[0] = 1
	_, _ = unix.Write(d.wakeFd, val[:])
}

func (d *epollDriver) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	_ = unix.Close(d.wakeFd)
	return unix.Close(d.epfd)
}
