// Package ringbuf provides a fixed-capacity rolling window. Once full, each
// push overwrites the oldest value. It backs the rolling indicators and the
// breakout range, which only ever need the last N observations of one series.
//
// A Window is not safe for concurrent use; every series owns its own.
package ringbuf

// Window holds the most recent values pushed into it, up to its capacity.
type Window[T any] struct {
	buf   []T
	head  int // next write position
	count int
}

// New creates a window holding up to capacity values. Minimum capacity is 1.
func New[T any](capacity int) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Window[T]{buf: make([]T, capacity)}
}

// Push appends v. When the window is full the oldest value is evicted and
// returned with ok=true.
func (w *Window[T]) Push(v T) (evicted T, ok bool) {
	if w.count == len(w.buf) {
		evicted, ok = w.buf[w.head], true
	} else {
		w.count++
	}
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	return evicted, ok
}

// Len returns the number of values currently held.
func (w *Window[T]) Len() int { return w.count }

// Full reports whether the window is at capacity.
func (w *Window[T]) Full() bool { return w.count == len(w.buf) }

// Each calls fn for every held value from oldest to newest.
func (w *Window[T]) Each(fn func(T)) {
	start := w.start()
	for i := 0; i < w.count; i++ {
		fn(w.buf[(start+i)%len(w.buf)])
	}
}

func (w *Window[T]) start() int {
	return (w.head - w.count + len(w.buf)) % len(w.buf)
}
