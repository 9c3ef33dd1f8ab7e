// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"

	"github.com/momentics/hioload-calc/reactor"
)

// Step is one scripted Wait outcome.
type Step struct {
	Events []reactor.Event
	Err    error
}

// Reactor replays a script of readiness batches. When the script runs
// out, Wait reports the trailing error, or blocks until Close if none.
type Reactor struct {
	mu         sync.Mutex
	Registered map[uintptr]uintptr
	Script     []Step
	Waits      int
	closed     chan struct{}
	closeOnce  sync.Once
}

func NewReactor(script ...Step) *Reactor {
	return &Reactor{
		Registered: make(map[uintptr]uintptr),
		Script:     script,
		closed:     make(chan struct{}),
	}
}

func (r *Reactor) Register(fd, userData uintptr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Registered[fd] = userData
	return nil
}

func (r *Reactor) Unregister(fd uintptr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Registered, fd)
	return nil
}

func (r *Reactor) Wait(events []reactor.Event) (int, error) {
	r.mu.Lock()
	r.Waits++
	if len(r.Script) == 0 {
		r.mu.Unlock()
		<-r.closed
		return 0, nil
	}
	step := r.Script[0]
	r.Script = r.Script[1:]
	r.mu.Unlock()

	n := copy(events, step.Events)
	return n, step.Err
}

func (r *Reactor) Close() error {
	r.closeOnce.Do(func() { close(r.closed) })
	return nil
}
