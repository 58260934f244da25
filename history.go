package bond

import "sync"

// history keeps the most recent items up to a fixed limit. A nil history
// records nothing.
type history[T any] struct {
	mu    sync.Mutex
	items []T
	limit int
}

func newHistory[T any](limit int) *history[T] {
	if limit <= 0 {
		return nil
	}
	return &history[T]{items: make([]T, 0, limit), limit: limit}
}

func (h *history[T]) push(v T) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.items) == h.limit {
		copy(h.items, h.items[1:])
		h.items = h.items[:h.limit-1]
	}
	h.items = append(h.items, v)
}

func (h *history[T]) reset() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.items)
	h.items = h.items[:0]
}

// snapshot returns the retained items, oldest first, or nil when empty.
func (h *history[T]) snapshot() []T {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.items) == 0 {
		return nil
	}
	return append([]T(nil), h.items...)
}
