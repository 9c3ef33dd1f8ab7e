//go:build linux
// +build linux

// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package transport

import (
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-calc/api"
)

// Conn is one accepted, blocking-mode stream socket.
type Conn struct {
	fd     int
	closed atomic.Bool
}

var _ api.Conn = (*Conn)(nil)

// Read performs one read(2). End of stream is reported as io.EOF.
func (c *Conn) Read(buf []byte) (int, error) {
	n, err := unix.Read(c.fd, buf)
	if err != nil {
		return 0, err
	}
	if n == 0 && len(buf) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write performs one write(2); short writes are the caller's business.
func (c *Conn) Write(buf []byte) (int, error) {
	n, err := unix.Write(c.fd, buf)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// SetDeadline sets SO_RCVTIMEO / SO_SNDTIMEO. A zero duration means no bound.
func (c *Conn) SetDeadline(read, write time.Duration) error {
	if err := setTimeout(c.fd, unix.SO_RCVTIMEO, read); err != nil {
		return err
	}
	return setTimeout(c.fd, unix.SO_SNDTIMEO, write)
}

func setTimeout(fd, opt int, d time.Duration) error {
	if d < 0 {
		d = 0
	}
	tv := unix.NsecToTimeval(d.Nanoseconds())
	return unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, opt, &tv)
}

// Close releases the descriptor once. EINTR from close(2) on Linux still
// frees the descriptor, so it is not retried.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := unix.Close(c.fd); err != nil && err != unix.EINTR {
		return err
	}
	return nil
}
