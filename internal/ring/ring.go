// Package ring provides bounded lock-free single-producer single-consumer
// queues. The producer owns the tail index, the consumer owns the head index,
// both are advanced with atomic stores only, so neither side ever waits on
// the other.
package ring

import "sync/atomic"

// Q is a bounded SPSC queue. Capacity is rounded up to a power of two so
// indexes wrap with a mask. Push and pop never block: a full queue rejects
// the push, an empty queue rejects the pop.
type Q[T any] struct {
	mask uint64
	buf  []T
	// head and tail are kept on separate cache lines so the producer and
	// consumer do not false-share.
	_    [8]uint64
	head atomic.Uint64
	_    [7]uint64
	tail atomic.Uint64
	_    [7]uint64
}

// New returns a queue holding at least capacity elements.
func New[T any](capacity int) *Q[T] {
	if capacity < 1 {
		capacity = 1
	}
	size := uint64(1)
	for size < uint64(capacity) {
		size <<= 1
	}
	return &Q[T]{
		mask: size - 1,
		buf:  make([]T, size),
	}
}

// TryPush appends v and returns true, or returns false when the queue is
// full. Producer side only.
func (q *Q[T]) TryPush(v T) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() > q.mask {
		return false
	}
	q.buf[tail&q.mask] = v
	q.tail.Store(tail + 1)
	return true
}

// TryPop removes and returns the oldest element, or returns false when the
// queue is empty. Consumer side only.
func (q *Q[T]) TryPop() (T, bool) {
	var zero T
	head := q.head.Load()
	if head == q.tail.Load() {
		return zero, false
	}
	v := q.buf[head&q.mask]
	// drop the queue's reference before the slot is handed back
	q.buf[head&q.mask] = zero
	q.head.Store(head + 1)
	return v, true
}

// Len returns a racy snapshot of the number of queued elements.
func (q *Q[T]) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the queue capacity.
func (q *Q[T]) Cap() int {
	return len(q.buf)
}
