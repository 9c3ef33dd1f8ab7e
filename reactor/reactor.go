// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness reactor interface.

package reactor

// EventReactor multiplexes readable interest over many descriptors.
type EventReactor interface {
	// Register an fd for readable notifications; userData is returned
	// verbatim in every Event reported for it.
	Register(fd uintptr, userData uintptr) error

	// Unregister removes an fd from the interest set.
	Unregister(fd uintptr) error

	// Wait blocks without timeout until at least one registered fd is
	// ready and writes into the output slice. A wait cut short by signal
	// delivery returns api.ErrInterrupted instead of retrying.
	Wait(events []Event) (n int, err error)

	// Close cleans up the facility.
	Close() error
}

// Event contains event information returned by Wait call.
type Event struct {
	Fd       uintptr // File descriptor.
	UserData uintptr // User-provided data.
	Hangup   bool    // EPOLLHUP/EPOLLERR was reported alongside readiness.
}
