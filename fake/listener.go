// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"github.com/momentics/hioload-calc/api"
)

// Listener hands out queued connections, then reports would-block, or Err
// when set. Accepts counts every call.
type Listener struct {
	KindValue api.TransportKind
	Name      string
	Queue     []*Conn
	Err       error
	Accepts   int
	Closed    bool
}

func (l *Listener) Kind() api.TransportKind { return l.KindValue }
func (l *Listener) Fd() uintptr             { return 0 }
func (l *Listener) Addr() string            { return l.Name }

func (l *Listener) Accept() (api.Conn, error) {
	l.Accepts++
	if l.Err != nil {
		return nil, l.Err
	}
	if len(l.Queue) == 0 {
		return nil, api.ErrWouldBlock
	}
	c := l.Queue[0]
	l.Queue = l.Queue[1:]
	return c, nil
}

func (l *Listener) Close() error {
	l.Closed = true
	return nil
}
