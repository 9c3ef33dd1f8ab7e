// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"bytes"
	"time"
)

// Conn is an in-memory api.Conn: reads drain In, writes append to Out.
type Conn struct {
	ID           string
	In           *bytes.Reader
	Out          bytes.Buffer
	WriteErr     error
	Closed       bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func NewConn(id string, input []byte) *Conn {
	return &Conn{ID: id, In: bytes.NewReader(input)}
}

func (c *Conn) Read(p []byte) (int, error) { return c.In.Read(p) }

func (c *Conn) Write(p []byte) (int, error) {
	if c.WriteErr != nil {
		return 0, c.WriteErr
	}
	return c.Out.Write(p)
}

func (c *Conn) SetDeadline(read, write time.Duration) error {
	c.ReadTimeout, c.WriteTimeout = read, write
	return nil
}

func (c *Conn) Close() error {
	c.Closed = true
	return nil
}
