// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection for the calculator server.
//
// Provides:
//   - Prometheus collectors for accepts, exchanges, and loop wakeups
//   - Named debug probes exported as a JSON snapshot
//   - An optional HTTP side-channel serving /metrics and /debug/probes
//
// Nothing here is on the request path's critical section: the event loop
// only increments counters.
package control
