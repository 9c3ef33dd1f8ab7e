// File: client/client.go
// Package client sends single calculator requests over TCP or a local socket.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/momentics/hioload-calc/api"
	"github.com/momentics/hioload-calc/protocol"
	"github.com/momentics/hioload-calc/transport"
)

// ErrShortReply means the server closed before a full record arrived.
// A status of -1 in a complete reply is not an error at this level.
var ErrShortReply = errors.New("short reply")

// DefaultTimeout bounds a whole exchange when ctx carries no deadline.
const DefaultTimeout = 10 * time.Second

// Client is safe for concurrent use; every Do opens its own connection.
type Client struct {
	network string
	address string
	timeout time.Duration
	dialer  net.Dialer
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the per-exchange deadline used when ctx has none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New returns a client for network "tcp" (address host:port) or "unix"
// (address is a socket path).
func New(network, address string, opts ...Option) *Client {
	c := &Client{network: network, address: address, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do dials, writes req, reads exactly one reply record and closes.
func (c *Client) Do(ctx context.Context, req protocol.Record) (protocol.Record, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := c.dialer.DialContext(ctx, c.network, c.address)
	if err != nil {
		return protocol.Record{}, api.NewError(api.ErrCodeConnection, "connect").
			WithCause(err).WithContext("address", c.address)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return protocol.Record{}, connError("set deadline", err)
	}

	wire := req.Encode()
	if _, err := transport.BulkWrite(conn, wire[:]); err != nil {
		return protocol.Record{}, connError("write", err)
	}

	reply := make([]byte, protocol.RecordSize)
	n, err := transport.BulkRead(conn, reply)
	if err != nil {
		return protocol.Record{}, connError("read", err)
	}
	if n != protocol.RecordSize {
		return protocol.Record{}, fmt.Errorf("%w: got %d of %d bytes", ErrShortReply, n, protocol.RecordSize)
	}
	return protocol.Decode(reply)
}

func connError(op string, err error) error {
	return api.NewError(api.ErrCodeConnection, op).WithCause(err)
}
