// File: server/options.go
// Package server defines functional options for the Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"log/slog"

	"github.com/momentics/hioload-calc/control"
)

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithLogger sets the structured logger; the default is slog.Default().
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *control.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithDebugProbes registers loop-state probes on dp.
func WithDebugProbes(dp *control.DebugProbes) ServerOption {
	return func(s *Server) {
		s.probes = dp
	}
}

// WithDrainPending switches to accept-until-would-block per ready listener.
func WithDrainPending(drain bool) ServerOption {
	return func(s *Server) {
		s.cfg.DrainPending = drain
	}
}

// WithMaxEvents overrides the readiness batch size.
func WithMaxEvents(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.cfg.MaxEvents = n
		}
	}
}
