// File: transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw-descriptor listening endpoints (TCP and Unix-domain) for the reactor,
// blocking per-connection sockets, and short-read/short-write-safe bulk I/O.
// Listeners are non-blocking so accept never suspends the event loop;
// accepted connections are blocking and are driven with BulkRead/BulkWrite.
// Linux only; other platforms get ErrNotSupported from the constructors.

package transport
