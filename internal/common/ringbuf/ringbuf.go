// Package ringbuf provides a bounded FIFO buffer used for error history
// retention: when full, the oldest entry drops first.
package ringbuf

import "sync"

type Buffer[T any] struct {
	mu    sync.Mutex
	items []T
	max   int
}

func New[T any](max int) *Buffer[T] {
	if max <= 0 {
		max = 100
	}
	return &Buffer[T]{max: max}
}

func (b *Buffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, item)
	if len(b.items) > b.max {
		b.items = b.items[1:]
	}
}

// Items returns a copy of the buffer contents, oldest first.
func (b *Buffer[T]) Items() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *Buffer[T]) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
}
