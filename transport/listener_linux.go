//go:build linux
// +build linux

// File: transport/listener_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux listening endpoints built directly on socket(2)/bind(2)/listen(2).

package transport

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-calc/api"
)

// Listener is a non-blocking listening socket of one transport kind.
type Listener struct {
	fd     int
	kind   api.TransportKind
	addr   string
	path   string // LOCAL only; unlinked on Close
	closed atomic.Bool
}

var _ api.Listener = (*Listener)(nil)

// ListenTCP binds INADDR_ANY:port with SO_REUSEADDR and starts listening.
// Port 0 binds an ephemeral port; Addr reports the one chosen.
func ListenTCP(port, backlog int) (*Listener, error) {
	if port < 0 || port > 65535 {
		return nil, setupError("bind", api.ErrInvalidPort).WithContext("port", port)
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, setupError("socket", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, setupError("setsockopt SO_REUSEADDR", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
		unix.Close(fd)
		return nil, setupError("bind", err).WithContext("port", port)
	}
	if err := finishListen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, err
	}
	addr := net4Addr(fd, port)
	return &Listener{fd: fd, kind: api.TransportTCP, addr: addr}, nil
}

// ListenLocal binds a Unix-domain stream socket at path. A stale filesystem
// object at path is removed first; only "not found" is tolerated.
func ListenLocal(path string, backlog int) (*Listener, error) {
	if path == "" {
		return nil, setupError("bind", api.ErrInvalidPath)
	}
	if err := unlinkSocket(path); err != nil {
		return nil, setupError("unlink", err).WithContext("path", path)
	}
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, setupError("socket", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return nil, setupError("bind", err).WithContext("path", path)
	}
	if err := finishListen(fd, backlog); err != nil {
		unix.Close(fd)
		_ = unlinkSocket(path)
		return nil, err
	}
	return &Listener{fd: fd, kind: api.TransportLocal, addr: path, path: path}, nil
}

// unlinkSocket removes path with unlink(2). Unlike os.Remove it never falls
// back to rmdir, so a directory at path is an error. ENOENT is success.
func unlinkSocket(path string) error {
	if err := unix.Unlink(path); err != nil && err != unix.ENOENT {
		return &os.PathError{Op: "unlink", Path: path, Err: err}
	}
	return nil
}

func finishListen(fd, backlog int) error {
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return setupError("listen", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return setupError("set non-blocking", err)
	}
	return nil
}

func net4Addr(fd, port int) string {
	if sa, err := unix.Getsockname(fd); err == nil {
		if in4, ok := sa.(*unix.SockaddrInet4); ok {
			port = in4.Port
		}
	}
	return "0.0.0.0:" + strconv.Itoa(port)
}

func setupError(op string, err error) *api.Error {
	return api.NewError(api.ErrCodeSetup, op).WithCause(err)
}

func (l *Listener) Kind() api.TransportKind { return l.kind }

func (l *Listener) Fd() uintptr { return uintptr(l.fd) }

func (l *Listener) Addr() string { return l.addr }

// Accept takes one pending connection off the backlog. The returned
// connection is in blocking mode. ErrWouldBlock means the backlog is empty.
func (l *Listener) Accept() (api.Conn, error) {
	if l.closed.Load() {
		return nil, api.ErrClosed
	}
	for {
		nfd, _, err := unix.Accept4(l.fd, unix.SOCK_CLOEXEC)
		switch {
		case err == nil:
			return &Conn{fd: nfd}, nil
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			return nil, api.ErrWouldBlock
		default:
			return nil, api.NewError(api.ErrCodeConnection, "accept").
				WithCause(err).
				WithContext("transport", l.kind.String())
		}
	}
}

// Close releases the descriptor and, for LOCAL, unlinks the socket path.
// Subsequent calls are no-ops.
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	if err := unix.Close(l.fd); err != nil {
		errs = append(errs, fmt.Errorf("close %s listener: %w", l.kind, err))
	}
	if l.path != "" {
		if err := unlinkSocket(l.path); err != nil {
			errs = append(errs, fmt.Errorf("unlink %s: %w", l.path, err))
		}
	}
	return errors.Join(errs...)
}
