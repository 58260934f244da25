package bond

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/oklog/ulid/v2"
	"github.com/zoobzio/capitan"
)

// ObservationToken disambiguates notifications delivered through a shared
// observation channel. Each observation gets its own token.
type ObservationToken = ulid.ULID

// NewObservationToken returns a fresh, unique ObservationToken.
func NewObservationToken() ObservationToken {
	return ulid.Make()
}

// Change is a notification about a value at an observed path.
type Change struct {
	Path  string
	Token ObservationToken

	// New is the value after the change. HasNew is false when the
	// collaborator could not supply one, for example on removal.
	New    any
	HasNew bool
}

// Subscription is the handle an ObservationCenter hands out for a
// registration.
type Subscription interface {
	Token() ObservationToken
}

// ObservationCenter is the capability a key-path observation mechanism
// exposes to the core.
//
// Observe must only deliver changes carrying the token it was registered
// with. Observers are back-references: registering one must never extend
// the lifetime of the observed object.
type ObservationCenter interface {
	Read(object any, path string) (any, error)
	Observe(object any, path string, token ObservationToken, handler func(Change)) (Subscription, error)
	Unobserve(sub Subscription)
}

type observation struct {
	center  ObservationCenter
	path    string
	token   ObservationToken
	sub     Subscription
	stopped atomic.Bool
	once    sync.Once
}

// Dispose deregisters the observation. No notification is forwarded after
// it returns.
func (o *observation) Dispose() {
	o.once.Do(func() {
		o.stopped.Store(true)
		if o.sub != nil {
			o.center.Unobserve(o.sub)
		}
		capitan.Emit(context.Background(), ObservationStopped,
			KeyPath.Field(o.path),
			KeyToken.Field(o.token.String()),
		)
	})
}

// ObserveKeyPath creates a Dynamic mirroring the value at path on object.
//
// The initial value is read synchronously; a value that cannot be converted
// to T fails with a *TypeMismatchError. Afterwards every change carrying this
// observation's token and a new value updates the Dynamic. Changes without a
// new value, changes for other tokens, and changes arriving after teardown
// are ignored. A later value that cannot be converted is dropped and
// reported through the ConversionFailed signal.
//
// Disposing the Dynamic deregisters the observation. If the Dynamic is
// abandoned without Dispose, the observation is deregistered once it is
// collected.
func ObserveKeyPath[T any](center ObservationCenter, object any, path string) (*Dynamic[T], error) {
	raw, err := center.Read(object, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	initial, err := convert[T](path, raw)
	if err != nil {
		return nil, err
	}

	d := NewDynamic(initial)
	ref := weak.Make(d)
	o := &observation{
		center: center,
		path:   path,
		token:  NewObservationToken(),
	}

	sub, err := center.Observe(object, path, o.token, func(c Change) {
		if c.Token != o.token {
			return
		}
		target := ref.Value()
		if o.stopped.Load() || target == nil {
			capitan.Emit(context.Background(), NotificationSuppressed,
				KeyPath.Field(o.path),
				KeyToken.Field(o.token.String()),
			)
			return
		}
		if !c.HasNew {
			return
		}
		v, err := convert[T](o.path, c.New)
		if err != nil {
			capitan.Emit(context.Background(), ConversionFailed,
				KeyPath.Field(o.path),
				KeyError.Field(err.Error()),
			)
			return
		}
		target.Set(v)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to observe %q: %w", path, err)
	}
	o.sub = sub

	d.Retain(o)
	runtime.AddCleanup(d, (*observation).Dispose, o)

	capitan.Emit(context.Background(), ObservationStarted,
		KeyPath.Field(path),
		KeyToken.Field(o.token.String()),
	)
	return d, nil
}
