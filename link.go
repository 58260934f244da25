package bond

import "sync"

// Binding is an explicit two-way link between two Dynamics.
type Binding[T any] struct {
	a, b linkSide[T]

	mu   sync.Mutex
	once sync.Once
}

type linkSide[T any] struct {
	d   *Dynamic[T]
	tok Token
	// writing is set while the link itself writes d; seen counts the
	// notifications d delivers back to the link meanwhile.
	writing bool
	seen    int
}

// Link keeps a and b in sync in both directions: a write to either is copied
// to the other, and the copy does not echo back. If a listener on the
// receiving side rewrites the copied value (clamping it, say), the rewritten
// value is copied back so both sides settle on it. Like every subscription,
// Link does not copy current values; it only forwards future writes.
func Link[T any](a, b *Dynamic[T]) *Binding[T] {
	l := &Binding[T]{a: linkSide[T]{d: a}, b: linkSide[T]{d: b}}
	l.a.tok = a.Subscribe(func(v T) { l.forward(&l.a, &l.b, v) })
	l.b.tok = b.Subscribe(func(v T) { l.forward(&l.b, &l.a, v) })
	return l
}

func (l *Binding[T]) forward(from, to *linkSide[T], v T) {
	l.mu.Lock()
	if from.writing {
		from.seen++
		l.mu.Unlock()
		return
	}
	to.writing, to.seen = true, 0
	l.mu.Unlock()

	to.d.Set(v)

	l.mu.Lock()
	to.writing = false
	rewritten := to.seen > 1
	l.mu.Unlock()

	if rewritten {
		l.forward(to, from, to.d.Value())
	}
}

// Close removes both directions. It is safe to call repeatedly.
func (l *Binding[T]) Close() {
	l.once.Do(func() {
		l.a.d.Unsubscribe(l.a.tok)
		l.b.d.Unsubscribe(l.b.tok)
	})
}
