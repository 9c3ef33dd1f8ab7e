//go:build linux
// +build linux

// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package reactor

import (
	"encoding/binary"
	"sync"

	"golang.org/x/sys/unix"
)

// Waker is an eventfd that stays readable from the first Wake until Drain.
// Register its Fd with the reactor; a Wake issued at any point before or
// during Wait makes that Wait return.
type Waker struct {
	mu     sync.RWMutex // guards fd against reuse after Close
	fd     int
	closed bool
}

// NewWaker creates a non-blocking eventfd.
func NewWaker() (*Waker, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, facilityError("eventfd", err)
	}
	return &Waker{fd: fd}, nil
}

func (w *Waker) Fd() uintptr { return uintptr(w.fd) }

// Wake is safe to call from any goroutine, any number of times.
func (w *Waker) Wake() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil
	}
	var one [8]byte
	binary.NativeEndian.PutUint64(one[:], 1)
	for {
		_, err := unix.Write(w.fd, one[:])
		switch err {
		case nil, unix.EAGAIN:
			// EAGAIN: counter saturated, already readable.
			return nil
		case unix.EINTR:
			continue
		default:
			return err
		}
	}
}

// Drain resets the counter so the fd stops reporting readable.
func (w *Waker) Drain() error {
	var buf [8]byte
	for {
		_, err := unix.Read(w.fd, buf[:])
		switch err {
		case nil, unix.EAGAIN:
			return nil
		case unix.EINTR:
			continue
		default:
			return err
		}
	}
}

func (w *Waker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return unix.Close(w.fd)
}
