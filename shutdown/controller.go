// File: shutdown/controller.go
// Package shutdown implements the cancellation token that gates the server loop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The running flag is a lock-free atomic, written once and read on every
// loop iteration. Whoever flips it also wakes every attached Waker, so a
// loop blocked in its readiness wait observes the flag within one wakeup.
// Flag first, wake second: a waiter that checked the flag just before the
// flip still finds its Waker readable and returns immediately.

package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/momentics/hioload-calc/api"
)

// Controller owns the process-wide running flag.
type Controller struct {
	running atomic.Bool
	reason  atomic.Value // string

	mu     sync.Mutex
	wakers []api.Waker
	done   chan struct{}
}

// NewController returns a controller in the running state.
func NewController() *Controller {
	c := &Controller{done: make(chan struct{})}
	c.running.Store(true)
	return c
}

// Running reports whether shutdown has not been requested yet.
func (c *Controller) Running() bool {
	return c.running.Load()
}

// Done is closed once shutdown has been requested.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Reason returns what triggered shutdown, or "" while running.
func (c *Controller) Reason() string {
	s, _ := c.reason.Load().(string)
	return s
}

// Attach registers a waker to be kicked on shutdown. If shutdown already
// happened the waker is kicked right away.
func (c *Controller) Attach(w api.Waker) {
	c.mu.Lock()
	if c.running.Load() {
		c.wakers = append(c.wakers, w)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	_ = w.Wake()
}

// Detach removes a previously attached waker.
func (c *Controller) Detach(w api.Waker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, x := range c.wakers {
		if x == w {
			c.wakers = append(c.wakers[:i], c.wakers[i+1:]...)
			return
		}
	}
}

// Trigger flips the flag exactly once; later calls are no-ops.
// Returns true for the call that performed the flip.
func (c *Controller) Trigger(reason string) bool {
	if !c.running.CompareAndSwap(true, false) {
		return false
	}
	c.reason.Store(reason)
	close(c.done)

	c.mu.Lock()
	wakers := c.wakers
	c.wakers = nil
	c.mu.Unlock()
	for _, w := range wakers {
		_ = w.Wake()
	}
	return true
}

// Notify relays the first of sigs (default os.Interrupt) into Trigger and
// ignores SIGPIPE so a vanished peer surfaces as EPIPE on write.
// The returned stop function uninstalls the relay.
func (c *Controller) Notify(sigs ...os.Signal) (stop func()) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt}
	}
	signal.Ignore(syscall.SIGPIPE)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	quit := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			c.Trigger(sig.String())
		case <-quit:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(quit)
		})
	}
}

// Watch triggers shutdown when ctx is cancelled.
func (c *Controller) Watch(ctx context.Context) {
	if ctx.Done() == nil {
		return
	}
	go func() {
		select {
		case <-ctx.Done():
			c.Trigger("context: " + ctx.Err().Error())
		case <-c.done:
		}
	}()
}
