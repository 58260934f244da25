package bond

import (
	"context"
	"sync"
	"weak"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Bond is a sink that applies every value it receives to an external target,
// typically a property of a control.
//
// A Bond is bound to at most one Dynamic at a time. It only holds a weak
// reference to that Dynamic: whoever owns the Dynamic decides how long it
// lives, and a collected Dynamic simply stops feeding the Bond.
type Bond[T any] struct {
	apply    func(T)
	pipeline pipz.Chainable[T]

	mu       sync.Mutex
	source   weak.Pointer[Dynamic[T]]
	token    Token
	disposed bool
}

// NewBond creates a Bond that calls apply for every value it receives.
// Options place a pipz pipeline in front of apply.
func NewBond[T any](apply func(T), opts ...Option[T]) *Bond[T] {
	b := &Bond[T]{apply: apply}
	if len(opts) > 0 {
		terminal := pipz.Effect(applyID, func(_ context.Context, v T) error {
			apply(v)
			return nil
		})
		b.pipeline = buildPipeline(terminal, opts)
	}
	return b
}

// Bind subscribes the Bond to d, detaching from any previous source first.
// Only values written after Bind reach the Bond; call Apply with d.Value()
// to push the current value as well.
func (b *Bond[T]) Bind(d *Dynamic[T]) {
	b.Unbind()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed || d == nil {
		return
	}
	tok := d.Subscribe(b.Apply)
	if tok == 0 {
		return
	}
	b.source = weak.Make(d)
	b.token = tok

	capitan.Emit(context.Background(), BondBound,
		KeyType.Field(typeName[T]()),
	)
}

// Unbind detaches the Bond from its source. It is safe to call repeatedly.
func (b *Bond[T]) Unbind() {
	b.mu.Lock()
	src := b.source.Value()
	tok := b.token
	wasBound := tok != 0
	b.source = weak.Pointer[Dynamic[T]]{}
	b.token = 0
	b.mu.Unlock()

	if !wasBound {
		return
	}
	if src != nil {
		src.Unsubscribe(tok)
	}
	capitan.Emit(context.Background(), BondUnbound,
		KeyType.Field(typeName[T]()),
	)
}

// Source returns the Dynamic the Bond is currently bound to, if it is still
// alive.
func (b *Bond[T]) Source() (*Dynamic[T], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.token == 0 {
		return nil, false
	}
	src := b.source.Value()
	return src, src != nil
}

// Bound reports whether the Bond is bound to a live Dynamic.
func (b *Bond[T]) Bound() bool {
	_, ok := b.Source()
	return ok
}

// Apply pushes v through the pipeline to the target. It does nothing once
// the Bond is disposed. Pipeline failures are reported through the
// BondApplyFailed signal and never propagate to the writer.
func (b *Bond[T]) Apply(v T) {
	b.mu.Lock()
	disposed := b.disposed
	b.mu.Unlock()
	if disposed {
		return
	}

	if b.pipeline == nil {
		b.apply(v)
		return
	}
	ctx := context.Background()
	if _, err := b.pipeline.Process(ctx, v); err != nil {
		capitan.Emit(ctx, BondApplyFailed,
			KeyType.Field(typeName[T]()),
			KeyError.Field(err.Error()),
		)
	}
}

// Dispose unbinds the Bond and stops it from applying values for good.
func (b *Bond[T]) Dispose() {
	b.Unbind()
	b.mu.Lock()
	b.disposed = true
	b.mu.Unlock()
}
