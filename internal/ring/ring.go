// Package ring provides a fixed-capacity FIFO that overwrites its oldest
// entry when full. It backs the key edge queue and the MQTT offline buffer.
package ring

import "log/slog"

// Buffer is a fixed-capacity FIFO. Not safe for concurrent use; caller must
// synchronize.
type Buffer[T any] struct {
	buf      []T
	head     int // next write position
	count    int
	overflow bool // true if any item was dropped since the buffer was last empty
	dropped  int
	name     string
	logger   *slog.Logger
}

// New creates a buffer holding up to capacity items (at least 1). The first
// drop of each overflow episode is logged under name.
func New[T any](capacity int, name string, logger *slog.Logger) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Buffer[T]{buf: make([]T, capacity), name: name, logger: logger}
}

// Push appends v, overwriting the oldest item when full.
func (b *Buffer[T]) Push(v T) {
	if b.count == len(b.buf) {
		if !b.overflow {
			b.logger.Warn("buffer full, dropping oldest", "buffer", b.name, "capacity", len(b.buf))
			b.overflow = true
		}
		// Overwrite oldest: head is already pointing at it
		b.buf[b.head] = v
		b.head = (b.head + 1) % len(b.buf)
		b.dropped++
		return
	}
	b.buf[b.head] = v
	b.head = (b.head + 1) % len(b.buf)
	b.count++
}

// Pop removes and returns the oldest item.
func (b *Buffer[T]) Pop() (T, bool) {
	var zero T
	if b.count == 0 {
		b.overflow = false
		return zero, false
	}
	// Oldest item is at (head - count) mod capacity
	i := (b.head - b.count + len(b.buf)) % len(b.buf)
	v := b.buf[i]
	b.buf[i] = zero
	b.count--
	return v, true
}

// DrainAll removes and returns every item, oldest first, or nil when empty.
func (b *Buffer[T]) DrainAll() []T {
	if b.count == 0 {
		return nil
	}
	out := make([]T, 0, b.count)
	for {
		v, ok := b.Pop()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	return b.count
}

// Cap returns the capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.buf)
}

// Dropped returns how many items have been overwritten since creation.
func (b *Buffer[T]) Dropped() int {
	return b.dropped
}
