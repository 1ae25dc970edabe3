package pool

import "sync"

// BufferSize is the size of pooled read buffers.
const BufferSize = 1024

var bufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, BufferSize)
		return &buf
	},
}

// GetBuffer returns a byte slice of length size.
//
// Slices of BufferSize or less are taken from the pool; return them with
// PutBuffer. Larger sizes are allocated directly.
func GetBuffer(size int) []byte {
	if size > BufferSize {
		return make([]byte, size)
	}
	bufPtr, _ := bufferPool.Get().(*[]byte) // only *[]byte values are put into the pool
	return (*bufPtr)[:size]
}

// PutBuffer returns buf to the pool.
//
// buf cannot be accessed after returning to the pool.
func PutBuffer(buf []byte) {
	if cap(buf) != BufferSize {
		return
	}
	buf = buf[:BufferSize]
	bufferPool.Put(&buf)
}
