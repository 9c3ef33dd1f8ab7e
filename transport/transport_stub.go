//go:build !linux
// +build !linux

// File: transport/transport_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package transport

import "github.com/momentics/hioload-calc/api"

// ListenTCP returns an error for unsupported platforms.
func ListenTCP(port, backlog int) (api.Listener, error) {
	return nil, api.NewError(api.ErrCodeSetup, "listen tcp").WithCause(api.ErrNotSupported)
}

// ListenLocal returns an error for unsupported platforms.
func ListenLocal(path string, backlog int) (api.Listener, error) {
	return nil, api.NewError(api.ErrCodeSetup, "listen local").WithCause(api.ErrNotSupported)
}
