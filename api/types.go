// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants.

package api

// TransportKind identifies the address family a listener was bound on.
type TransportKind int

const (
	TransportTCP TransportKind = iota
	TransportLocal
)

func (k TransportKind) String() string {
	switch k {
	case TransportTCP:
		return "tcp"
	case TransportLocal:
		return "local"
	default:
		return "unknown"
	}
}

// State enumerates the phases of the server event loop.
type State int32

const (
	StateInit State = iota
	StateWaiting
	StateDispatching
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateWaiting:
		return "waiting"
	case StateDispatching:
		return "dispatching"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
