package bond

import (
	"sync"
	"time"
	"weak"

	"github.com/zoobzio/clockz"
)

// derive wires a downstream Dynamic to src. The downstream owns the upstream
// subscription and keeps src alive; src only holds a weak reference to the
// downstream, so an abandoned derived cell never leaks through its source.
func derive[T, U any](src *Dynamic[T], initial U, forward func(dst *Dynamic[U], v T)) *Dynamic[U] {
	dst := NewDynamic(initial)
	ref := weak.Make(dst)

	var tok Token
	tok = src.Subscribe(func(v T) {
		target := ref.Value()
		if target == nil {
			src.Unsubscribe(tok)
			return
		}
		forward(target, v)
	})
	dst.Retain(func() { src.Unsubscribe(tok) })
	return dst
}

// Map returns a Dynamic holding fn applied to every value of src, starting
// with fn(src.Value()).
func Map[T, U any](src *Dynamic[T], fn func(T) U) *Dynamic[U] {
	return derive(src, fn(src.Value()), func(dst *Dynamic[U], v T) {
		dst.Set(fn(v))
	})
}

// Filter returns a Dynamic that only takes values of src satisfying pred.
// The initial value is src's current value regardless of pred.
func Filter[T any](src *Dynamic[T], pred func(T) bool) *Dynamic[T] {
	return derive(src, src.Value(), func(dst *Dynamic[T], v T) {
		if pred(v) {
			dst.Set(v)
		}
	})
}

// Throttle returns a Dynamic that forwards a value from src only when at
// least interval has passed since the last forwarded one. Dropped values are
// not replayed later. A nil clock uses clockz.RealClock.
func Throttle[T any](src *Dynamic[T], interval time.Duration, clock clockz.Clock) *Dynamic[T] {
	if clock == nil {
		clock = clockz.RealClock
	}
	var (
		mu   sync.Mutex
		last time.Time
		seen bool
	)
	return derive(src, src.Value(), func(dst *Dynamic[T], v T) {
		now := clock.Now()
		mu.Lock()
		if seen && now.Sub(last) < interval {
			mu.Unlock()
			return
		}
		last = now
		seen = true
		mu.Unlock()
		dst.Set(v)
	})
}

// Combine returns a Dynamic holding reduce over the current values of srcs,
// in the order given. It is recomputed whenever any source is written.
func Combine[T, U any](reduce func([]T) U, srcs ...*Dynamic[T]) *Dynamic[U] {
	current := func() []T {
		vals := make([]T, len(srcs))
		for i, src := range srcs {
			vals[i] = src.Value()
		}
		return vals
	}

	dst := NewDynamic(reduce(current()))
	ref := weak.Make(dst)
	for _, src := range srcs {
		var tok Token
		tok = src.Subscribe(func(T) {
			target := ref.Value()
			if target == nil {
				src.Unsubscribe(tok)
				return
			}
			target.Set(reduce(current()))
		})
		dst.Retain(func() { src.Unsubscribe(tok) })
	}
	return dst
}
