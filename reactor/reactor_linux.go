//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based reactor implementation and factory.

package reactor

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-calc/api"
)

// linuxReactor is a level-triggered epoll reactor. User data is kept in a
// side table keyed by fd; the epoll_event payload carries only the fd.
type linuxReactor struct {
	epfd  int
	mu    sync.RWMutex
	udata map[int32]uintptr
	raw   []unix.EpollEvent
}

// NewReactor constructs a new platform-specific EventReactor for Linux.
func NewReactor() (EventReactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, facilityError("epoll_create1", err)
	}
	return &linuxReactor{epfd: epfd, udata: make(map[int32]uintptr)}, nil
}

// Register adds file descriptor to epoll with readable interest.
func (r *linuxReactor) Register(fd uintptr, udata uintptr) error {
	event := &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(fd),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, int(fd), event); err != nil {
		return facilityError("epoll_ctl add", err).WithContext("fd", fd)
	}
	r.udata[int32(fd)] = udata
	return nil
}

// Unregister removes file descriptor from epoll.
func (r *linuxReactor) Unregister(fd uintptr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.udata, int32(fd))
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, int(fd), nil); err != nil {
		return facilityError("epoll_ctl del", err).WithContext("fd", fd)
	}
	return nil
}

// Wait waits for epoll events and fills the result into events slice.
func (r *linuxReactor) Wait(events []Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	if cap(r.raw) < len(events) {
		r.raw = make([]unix.EpollEvent, len(events))
	}
	raw := r.raw[:len(events)]
	n, err := unix.EpollWait(r.epfd, raw, -1)
	if err != nil {
		if err == unix.EINTR {
			return 0, api.ErrInterrupted
		}
		return 0, facilityError("epoll_wait", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := 0; i < n; i++ {
		events[i] = Event{
			Fd:       uintptr(raw[i].Fd),
			UserData: r.udata[raw[i].Fd],
			Hangup:   raw[i].Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0,
		}
	}
	return n, nil
}

// Close closes the epoll instance.
func (r *linuxReactor) Close() error {
	return unix.Close(r.epfd)
}

func facilityError(op string, err error) *api.Error {
	return api.NewError(api.ErrCodeFacility, op).WithCause(err)
}
