// File: server/server.go
// Package server implements the calculator service: two listening transports
// funneled into one readiness reactor, served one request per connection.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-calc/api"
	"github.com/momentics/hioload-calc/control"
	"github.com/momentics/hioload-calc/pool"
	"github.com/momentics/hioload-calc/protocol"
	"github.com/momentics/hioload-calc/reactor"
	"github.com/momentics/hioload-calc/shutdown"
	"github.com/momentics/hioload-calc/transport"
)

var ErrAlreadyRunning = errors.New("server already running")

// wakeToken is the reactor user data of the shutdown waker; listeners use
// their index in Server.listeners.
const wakeToken = ^uintptr(0)

// Server owns both listening endpoints and the reactor for its whole lifetime.
type Server struct {
	cfg     *Config
	log     *slog.Logger
	metrics *control.Metrics
	probes  *control.DebugProbes
	ctrl    *shutdown.Controller

	reactor   reactor.EventReactor
	waker     *reactor.Waker
	listeners []api.Listener

	events  []reactor.Event
	ready   []api.Listener
	pending *queue.Queue // of pendingExchange, FIFO across listeners
	bufs    *pool.BufferPool

	state     atomic.Int32
	started   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New performs transport setup (TCP, then LOCAL) and creates the readiness
// facility. Nothing is registered yet; Run does that. On failure every
// resource created so far is released. ctrl may be nil, in which case the
// server has a private controller reachable through Shutdown.
func New(cfg *Config, ctrl *shutdown.Controller, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if ctrl == nil {
		ctrl = shutdown.NewController()
	}
	s := &Server{
		cfg:     cfg.withDefaults(),
		log:     slog.Default(),
		ctrl:    ctrl,
		pending: queue.New(),
		bufs:    pool.NewBufferPool(protocol.RecordSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = make([]reactor.Event, s.cfg.MaxEvents)

	if err := s.setup(); err != nil {
		s.release()
		return nil, err
	}
	if s.probes != nil {
		s.registerProbes(s.probes)
	}
	return s, nil
}

func (s *Server) setup() error {
	tcp, err := transport.ListenTCP(s.cfg.Port, s.cfg.Backlog)
	if err != nil {
		return err
	}
	s.listeners = append(s.listeners, tcp)

	local, err := transport.ListenLocal(s.cfg.LocalPath, s.cfg.Backlog)
	if err != nil {
		return err
	}
	s.listeners = append(s.listeners, local)

	if s.reactor, err = reactor.NewReactor(); err != nil {
		return err
	}
	if s.waker, err = reactor.NewWaker(); err != nil {
		return err
	}
	return nil
}

func (s *Server) registerProbes(dp *control.DebugProbes) {
	dp.RegisterProbe("loop.state", func() any { return s.State().String() })
	dp.RegisterProbe("loop.shutdown_reason", func() any { return s.ctrl.Reason() })
	dp.RegisterProbe("loop.listeners", func() any { return s.Addrs() })
}

// State reports the current phase of the event loop.
func (s *Server) State() api.State {
	return api.State(s.state.Load())
}

func (s *Server) setState(st api.State) {
	s.state.Store(int32(st))
}

// Addr returns the bound address of the listener of the given kind.
func (s *Server) Addr(kind api.TransportKind) string {
	for _, l := range s.listeners {
		if l.Kind() == kind {
			return l.Addr()
		}
	}
	return ""
}

// Addrs maps each transport name to its bound address.
func (s *Server) Addrs() map[string]string {
	out := make(map[string]string, len(s.listeners))
	for _, l := range s.listeners {
		out[l.Kind().String()] = l.Addr()
	}
	return out
}

// Controller exposes the shutdown token the loop polls.
func (s *Server) Controller() *shutdown.Controller {
	return s.ctrl
}

// Shutdown requests loop termination; Run returns after the current batch.
func (s *Server) Shutdown() {
	s.ctrl.Trigger("shutdown requested")
}

// Close releases all resources. Run calls it on exit; calling it directly
// is only needed when Run was never started.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.setState(api.StateShuttingDown)
		s.closeErr = s.release()
		s.setState(api.StateTerminated)
	})
	return s.closeErr
}

// release closes listeners (unlinking the LOCAL path), any queued
// connections, the waker and the reactor. Safe on a partially built Server.
func (s *Server) release() error {
	var errs []error
	if s.waker != nil {
		s.ctrl.Detach(s.waker)
	}
	for s.pending.Length() > 0 {
		p := s.pending.Remove().(pendingExchange)
		_ = p.conn.Close()
	}
	for _, l := range s.listeners {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.waker != nil {
		if err := s.waker.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.reactor != nil {
		if err := s.reactor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
