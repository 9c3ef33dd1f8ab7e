// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package api

import "time"

// Listener is a bound, passive, non-blocking endpoint registered with the reactor.
// The event loop dispatches on this capability only, never on the concrete transport.
type Listener interface {
	Kind() TransportKind
	// Fd returns the descriptor to register for readable interest.
	Fd() uintptr
	Addr() string
	// Accept returns one pending connection or ErrWouldBlock.
	Accept() (Conn, error)
	Close() error
}

// Conn abstracts one accepted, blocking-mode stream connection.
type Conn interface {
	Read(buf []byte) (int, error)
	Write(buf []byte) (int, error)
	// SetDeadline bounds each blocking read/write; zero disables the bound.
	SetDeadline(read, write time.Duration) error
	Close() error
}

// Waker makes a blocked readiness wait return.
type Waker interface {
	Wake() error
}
