// File: pool/bufpool.go
// Author: momentics <momentics@gmail.com>
//
// Fixed-size buffer pool; every buffer handed out has exactly Size bytes.

package pool

import "sync"

// BufferPool hands out zeroed buffers of one fixed size.
// Buffers travel as *[]byte so Put does not allocate.
type BufferPool struct {
	size int
	pool *sync.Pool
}

// NewBufferPool creates a pool of size-byte buffers.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		size: size,
		pool: &sync.Pool{New: func() any {
			b := make([]byte, size)
			return &b
		}},
	}
}

// Size returns the length of every buffer from this pool.
func (p *BufferPool) Size() int { return p.size }

// Get returns a zeroed buffer of Size bytes.
func (p *BufferPool) Get() *[]byte {
	b := p.pool.Get().(*[]byte)
	clear(*b)
	return b
}

// Put returns a buffer; foreign-sized buffers are dropped.
func (p *BufferPool) Put(b *[]byte) {
	if b == nil || len(*b) != p.size {
		return
	}
	p.pool.Put(b)
}
