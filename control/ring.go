package control

// Ring is a fixed-capacity FIFO buffer; pushing into a full ring evicts the oldest element
// Not safe for concurrent use
type Ring[T any] struct {
	buf  []T
	head int // index of the oldest element
	n    int
}

// NewRing creates a ring holding at most capacity elements, minimum 1
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, returning the evicted element when the ring was full
func (r *Ring[T]) Push(v T) (evicted T, ok bool) {
	capacity := len(r.buf)
	if r.n < capacity {
		r.buf[(r.head+r.n)%capacity] = v
		r.n++
		return evicted, false
	}
	evicted = r.buf[r.head]
	r.buf[r.head] = v
	r.head = (r.head + 1) % capacity
	return evicted, true
}

// Back returns the i-th newest element; Back(0) is the most recent push
func (r *Ring[T]) Back(i int) (T, bool) {
	var zero T
	if i < 0 || i >= r.n {
		return zero, false
	}
	return r.buf[(r.head+r.n-1-i)%len(r.buf)], true
}

// Len returns the number of stored elements
func (r *Ring[T]) Len() int { return r.n }

// Cap returns the fixed capacity
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Slice copies the contents oldest first
func (r *Ring[T]) Slice() []T {
	out := make([]T, r.n)
	for i := range out {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Clear drops all elements, releasing references held by the backing array
func (r *Ring[T]) Clear() {
	clear(r.buf)
	r.head = 0
	r.n = 0
}
