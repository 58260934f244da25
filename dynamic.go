package bond

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/capitan"
)

// Token identifies a subscription on a Dynamic. The zero Token never
// identifies a live subscription.
type Token uint64

// Disposer is implemented by helpers that need teardown when the Dynamic
// retaining them is disposed.
type Disposer interface {
	Dispose()
}

type subscription[T any] struct {
	token    Token
	listener func(T)
	active   atomic.Bool
}

// Dynamic is an observable value cell. It holds exactly one current value
// and synchronously notifies its subscribers, in subscription order, every
// time the value is written.
//
// Subscribers receive future values only; Subscribe never replays the
// current value. Every constructor in this package follows the same policy.
//
// Dynamic is meant to be driven from a single event loop. Its internal state
// is guarded so background collaborators cannot corrupt it, but listeners
// run on the writer's goroutine, outside any lock. A listener that writes
// back to the Dynamic it listens on triggers a nested notification pass;
// avoiding unbounded chains is the caller's responsibility.
type Dynamic[T any] struct {
	mu       sync.Mutex
	value    T
	subs     []*subscription[T]
	next     Token
	retained []any
	disposed bool
}

// NewDynamic creates a Dynamic holding initial.
func NewDynamic[T any](initial T) *Dynamic[T] {
	return &Dynamic[T]{value: initial}
}

// Value returns the current value.
func (d *Dynamic[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Set replaces the current value and notifies every active subscriber.
// Equal consecutive values are delivered again; there is no deduplication.
func (d *Dynamic[T]) Set(v T) {
	d.mu.Lock()
	d.value = v
	subs := d.snapshot()
	d.mu.Unlock()

	d.notify(subs, v)
}

// Update applies fn to the current value, stores the result and notifies.
// fn runs while the Dynamic is locked and must not call back into it.
func (d *Dynamic[T]) Update(fn func(T) T) {
	d.mu.Lock()
	v := fn(d.value)
	d.value = v
	subs := d.snapshot()
	d.mu.Unlock()

	d.notify(subs, v)
}

// snapshot copies the subscriber list. Callers hold d.mu.
func (d *Dynamic[T]) snapshot() []*subscription[T] {
	if len(d.subs) == 0 {
		return nil
	}
	subs := make([]*subscription[T], len(d.subs))
	copy(subs, d.subs)
	return subs
}

func (*Dynamic[T]) notify(subs []*subscription[T], v T) {
	for _, s := range subs {
		// A listener may unsubscribe a later one mid-pass.
		if s.active.Load() {
			s.listener(v)
		}
	}
}

// Subscribe registers fn for all future values and returns its Token.
// Subscribing to a disposed Dynamic registers nothing and returns the zero
// Token.
func (d *Dynamic[T]) Subscribe(fn func(T)) Token {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return 0
	}
	d.next++
	s := &subscription[T]{token: d.next, listener: fn}
	s.active.Store(true)
	d.subs = append(d.subs, s)
	return s.token
}

// Unsubscribe removes the subscription identified by tok. Unknown or
// already removed tokens are ignored.
func (d *Dynamic[T]) Unsubscribe(tok Token) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.subs {
		if s.token == tok {
			s.active.Store(false)
			d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
			return
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (d *Dynamic[T]) Subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// Retain makes the Dynamic the owner of helper for the rest of its life.
// On Dispose, helpers implementing Disposer or io.Closer, and plain func()
// teardown hooks, are released in
// reverse retention order. Retaining on a disposed Dynamic releases helper
// immediately.
func (d *Dynamic[T]) Retain(helper any) {
	d.mu.Lock()
	if !d.disposed {
		d.retained = append(d.retained, helper)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	release(helper)
}

// Dispose tears down every subscription and releases retained helpers.
// Later writes still update the value but reach no one. Dispose is
// idempotent.
func (d *Dynamic[T]) Dispose() {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.disposed = true
	subs := d.subs
	retained := d.retained
	d.subs = nil
	d.retained = nil
	d.mu.Unlock()

	for _, s := range subs {
		s.active.Store(false)
	}
	for i := len(retained) - 1; i >= 0; i-- {
		release(retained[i])
	}

	capitan.Emit(context.Background(), DynamicDisposed,
		KeyType.Field(typeName[T]()),
		KeySubscribers.Field(len(subs)),
	)
}

// Disposed reports whether Dispose has been called.
func (d *Dynamic[T]) Disposed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disposed
}

func release(helper any) {
	switch h := helper.(type) {
	case Disposer:
		h.Dispose()
	case io.Closer:
		_ = h.Close() //nolint:errcheck // Teardown is best effort
	case func():
		h()
	}
}

func typeName[T any]() string {
	var zero *T
	return fmt.Sprintf("%T", zero)[1:]
}
