// Package pool
// Author: momentics <momentics@gmail.com>
//
// Reusable fixed-size byte buffers for the request/response exchange.
// Exchanges borrow one record-sized buffer for the read and give it back on close.
package pool
