//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import "github.com/momentics/hioload-calc/api"

// NewReactor returns an error for unsupported platforms.
func NewReactor() (EventReactor, error) {
	return nil, api.NewError(api.ErrCodeFacility, "reactor").WithCause(api.ErrNotSupported)
}

// Waker is unavailable on unsupported platforms.
type Waker struct{}

// NewWaker returns an error for unsupported platforms.
func NewWaker() (*Waker, error) {
	return nil, api.NewError(api.ErrCodeFacility, "waker").WithCause(api.ErrNotSupported)
}

func (w *Waker) Fd() uintptr  { return 0 }
func (w *Waker) Wake() error  { return api.ErrNotSupported }
func (w *Waker) Drain() error { return api.ErrNotSupported }
func (w *Waker) Close() error { return nil }
