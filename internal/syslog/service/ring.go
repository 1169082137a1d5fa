package service

import "sync"

// Ring is a bounded FIFO that drops its oldest entry when full. Several
// rings may share one notify channel so a single worker pool can drain them.
type Ring[T any] struct {
	mu     sync.Mutex
	buf    []T
	head   int
	size   int
	notify chan struct{}
}

// Push appends v and reports whether the oldest entry was dropped to make
// room for it.
func (r *Ring[T]) Push(v T) bool {
	r.mu.Lock()
	dropped := false
	if r.size == len(r.buf) {
		var zero T
		r.buf[r.head] = zero
		r.head = (r.head + 1) % len(r.buf)
		r.size--
		dropped = true
	}
	r.buf[(r.head+r.size)%len(r.buf)] = v
	r.size++
	r.mu.Unlock()

	r.signal()
	return dropped
}

// TryPop removes the oldest entry without blocking.
func (r *Ring[T]) TryPop() (T, bool) {
	r.mu.Lock()
	var zero T
	if r.size == 0 {
		r.mu.Unlock()
		return zero, false
	}
	v := r.buf[r.head]
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.size--
	remaining := r.size
	r.mu.Unlock()

	// Wake another consumer while entries are left.
	if remaining > 0 {
		r.signal()
	}
	return v, true
}

// Len returns the number of queued entries.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

func (r *Ring[T]) signal() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// NewRing creates a ring of the given capacity that signals notify after
// every push. A nil notify gets a private channel.
func NewRing[T any](capacity int, notify chan struct{}) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	if notify == nil {
		notify = make(chan struct{}, 1)
	}
	return &Ring[T]{buf: make([]T, capacity), notify: notify}
}
