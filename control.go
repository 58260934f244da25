package bond

import (
	"context"
	"weak"

	"github.com/zoobzio/capitan"
)

// ControlHelper is the capability a stateful control exposes so the core can
// mirror it in a Dynamic without knowing the control's concrete type.
//
// Implementations keep at most one listener: SetListener replaces any
// previous one, and SetListener(nil) clears it. The listener must be invoked
// exactly once per user-visible state change, with the freshly read value.
type ControlHelper[T any] interface {
	Value() T
	SetListener(fn func(T))
}

// FromControl creates a Dynamic that mirrors h. Its initial value is
// h.Value() and every listener firing overwrites it. Writes made through the
// Dynamic's own Set are never pushed back into the control; wire a Bond in
// the other direction for two-way binding.
//
// The Dynamic retains h and clears the listener when disposed. The listener
// only holds a weak reference to the Dynamic, so a control that outlives an
// abandoned Dynamic keeps firing into nothing rather than keeping it alive.
func FromControl[T any](h ControlHelper[T]) *Dynamic[T] {
	d := NewDynamic(h.Value())
	ref := weak.Make(d)

	h.SetListener(func(v T) {
		target := ref.Value()
		if target == nil || target.Disposed() {
			capitan.Emit(context.Background(), NotificationSuppressed,
				KeyType.Field(typeName[T]()),
			)
			return
		}
		target.Set(v)
	})

	d.Retain(h)
	d.Retain(func() { h.SetListener(nil) })
	return d
}
