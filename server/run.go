// File: server/run.go
// Package server implements the event loop: readiness wait, accept dispatch
// and teardown.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/momentics/hioload-calc/affinity"
	"github.com/momentics/hioload-calc/api"
	"github.com/momentics/hioload-calc/control"
	"github.com/momentics/hioload-calc/reactor"
)

// Run drives INIT -> WAITING <-> DISPATCHING -> SHUTTING_DOWN -> TERMINATED.
// It returns nil after a requested shutdown (signal, Shutdown, or ctx
// cancellation) and a Facility error if the reactor itself fails. Either
// way the listeners are closed and the LOCAL path is unlinked on return.
func (s *Server) Run(ctx context.Context) (err error) {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	s.ctrl.Watch(ctx)

	if len(s.cfg.CPUAffinity) > 0 {
		// Never unlocked: the pinned thread exits with this goroutine
		// instead of returning to the scheduler's pool.
		runtime.LockOSThread()
		if err := affinity.Pin(s.cfg.CPUAffinity); err != nil {
			return err
		}
	}
	if err := s.register(); err != nil {
		return err
	}
	s.log.Info("event loop started",
		"tcp", s.Addr(api.TransportTCP),
		"local", s.Addr(api.TransportLocal),
		"drain_pending", s.cfg.DrainPending,
		"cpu_affinity", s.cfg.CPUAffinity)

	for s.ctrl.Running() {
		s.setState(api.StateWaiting)
		n, err := s.reactor.Wait(s.events)
		if err != nil {
			if errors.Is(err, api.ErrInterrupted) {
				s.metrics.Wakeup(control.WakeInterrupted)
				continue
			}
			s.log.Error("readiness wait failed", "error", err)
			return err
		}
		s.setState(api.StateDispatching)
		s.dispatch(s.events[:n])
	}

	s.log.Info("event loop stopping", "reason", s.ctrl.Reason())
	return nil
}

// register puts every listener and the waker into the reactor's interest set.
func (s *Server) register() error {
	for i, l := range s.listeners {
		if err := s.reactor.Register(l.Fd(), uintptr(i)); err != nil {
			return err
		}
	}
	if err := s.reactor.Register(s.waker.Fd(), wakeToken); err != nil {
		return err
	}
	s.ctrl.Attach(s.waker)
	return nil
}

// dispatch handles one batch: collect ready listeners, accept, then serve
// every queued exchange to completion. Shutdown is not checked mid-batch.
func (s *Server) dispatch(events []reactor.Event) {
	s.ready = s.ready[:0]
	woken := false
	for _, ev := range events {
		if ev.UserData == wakeToken {
			woken = true
			continue
		}
		if ev.UserData >= uintptr(len(s.listeners)) {
			continue
		}
		l := s.listeners[ev.UserData]
		if ev.Hangup {
			// Still try to accept: a pending error is reported by accept itself.
			s.metrics.Hangup(l.Kind().String())
			s.log.Warn("listener reported hangup", "transport", l.Kind().String(), "addr", l.Addr())
		}
		s.ready = append(s.ready, l)
	}
	if woken {
		s.metrics.Wakeup(control.WakeShutdown)
		if err := s.waker.Drain(); err != nil {
			s.log.Warn("waker drain failed", "error", err)
		}
	}
	if len(s.ready) == 0 {
		return
	}
	s.metrics.Wakeup(control.WakeEvents)

	s.acceptReady()
	for s.pending.Length() > 0 {
		s.exchange(s.pending.Remove().(pendingExchange))
	}
}

// acceptReady accepts once per ready listener, or, with DrainPending,
// round-robin across ready listeners until each would block or reaches
// AcceptBatch. Would-block is not an error; it just retires the listener
// for this iteration.
func (s *Server) acceptReady() {
	rounds := 1
	if s.cfg.DrainPending {
		rounds = s.cfg.AcceptBatch
	}
	ready := s.ready
	for round := 0; round < rounds && len(ready) > 0; round++ {
		next := ready[:0]
		for _, l := range ready {
			conn, err := l.Accept()
			switch {
			case err == nil:
				s.metrics.Accepted(l.Kind().String())
				s.pending.Add(pendingExchange{conn: conn, kind: l.Kind(), accepted: time.Now()})
				next = append(next, l)
			case errors.Is(err, api.ErrWouldBlock):
			default:
				s.log.Warn("accept failed", "transport", l.Kind().String(), "error", err)
			}
		}
		ready = next
	}
}
