package pipeline

import (
	"sync"
)

// RingBuffer is a growable circular buffer of complex samples. It holds the
// tuned but not yet filtered samples of one stream between pushes.
type RingBuffer struct {
	data     []complex128
	capacity int
	size     int
	readPos  int
	writePos int
	mu       sync.Mutex
}

// NewRingBuffer creates a new ring buffer with the specified capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < minBufferCapacity {
		capacity = minBufferCapacity
	}

	return &RingBuffer{
		data:     make([]complex128, capacity),
		capacity: capacity,
	}
}

// Write appends samples, growing the buffer if needed.
func (b *RingBuffer) Write(samples []complex128) {
	b.mu.Lock()
	defer b.mu.Unlock()

	needed := len(samples)
	if needed == 0 {
		return
	}

	if b.size+needed > b.capacity {
		b.grow(b.size + needed)
	}

	// At most two copies: up to the end of the backing array, then the wrap
	n := copy(b.data[b.writePos:], samples)
	if n < needed {
		copy(b.data, samples[n:])
	}

	b.writePos = (b.writePos + needed) % b.capacity
	b.size += needed
}

// PeekInto copies up to len(dst) samples into dst without consuming them and
// returns the number copied.
func (b *RingBuffer) PeekInto(dst []complex128) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.peekLocked(dst)
}

func (b *RingBuffer) peekLocked(dst []complex128) int {
	n := min(len(dst), b.size)
	if n == 0 {
		return 0
	}

	c := copy(dst[:n], b.data[b.readPos:min(b.readPos+n, b.capacity)])
	if c < n {
		copy(dst[c:n], b.data[:n-c])
	}

	return n
}

// Read removes and returns up to n samples.
func (b *RingBuffer) Read(n int) []complex128 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return []complex128{}
	}

	result := make([]complex128, n)
	b.peekLocked(result)
	b.discardLocked(n)

	return result
}

// Discard drops up to n samples from the read side.
func (b *RingBuffer) Discard(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.discardLocked(n)
}

func (b *RingBuffer) discardLocked(n int) {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return
	}

	b.readPos = (b.readPos + n) % b.capacity
	b.size -= n
}

// ReadAll retrieves all available samples from the buffer.
func (b *RingBuffer) ReadAll() []complex128 {
	return b.Read(b.Available())
}

// Available returns the number of samples available for reading.
func (b *RingBuffer) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Capacity returns the current buffer capacity.
func (b *RingBuffer) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// Clear removes all samples from the buffer.
func (b *RingBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.size = 0
	b.readPos = 0
	b.writePos = 0
}

// grow increases the buffer capacity to at least the specified size.
func (b *RingBuffer) grow(minCapacity int) {
	newCapacity := b.capacity
	for newCapacity < minCapacity {
		newCapacity *= bufferGrowthFactor
	}

	newData := make([]complex128, newCapacity)
	b.peekLocked(newData)

	b.data = newData
	b.capacity = newCapacity
	b.readPos = 0
	b.writePos = b.size % newCapacity
}
