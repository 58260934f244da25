package keypath

import (
	"fmt"
	"weak"

	"github.com/zoobzio/bond"
)

// Center is the bond.ObservationCenter for *Object values.
type Center struct{}

// DefaultCenter is the Center used by Observe.
var DefaultCenter = &Center{}

type subscription struct {
	object weak.Pointer[Object]
	token  bond.ObservationToken
}

func (s *subscription) Token() bond.ObservationToken { return s.token }

// Read returns the value at path on object.
func (*Center) Read(object any, path string) (any, error) {
	obj, err := asObject(object)
	if err != nil {
		return nil, err
	}
	v, ok := obj.Get(path)
	if !ok {
		return nil, fmt.Errorf("%q: %w", path, bond.ErrPathNotFound)
	}
	return v, nil
}

// Observe registers handler for changes at path. Every change delivered to
// handler carries token.
func (*Center) Observe(object any, path string, token bond.ObservationToken, handler func(bond.Change)) (bond.Subscription, error) {
	obj, err := asObject(object)
	if err != nil {
		return nil, err
	}
	obj.observe(path, token, handler)
	return &subscription{object: weak.Make(obj), token: token}, nil
}

// Unobserve removes the registration behind sub. Subscriptions whose object
// is gone are ignored.
func (*Center) Unobserve(sub bond.Subscription) {
	s, ok := sub.(*subscription)
	if !ok {
		return
	}
	if obj := s.object.Value(); obj != nil {
		obj.unobserve(s.token)
	}
}

var _ bond.ObservationCenter = (*Center)(nil)

// Observe mirrors the value at path on obj in a Dynamic.
func Observe[T any](obj *Object, path string) (*bond.Dynamic[T], error) {
	return bond.ObserveKeyPath[T](DefaultCenter, obj, path)
}

func asObject(object any) (*Object, error) {
	obj, ok := object.(*Object)
	if !ok || obj == nil {
		return nil, fmt.Errorf("%T: %w", object, bond.ErrNotObservable)
	}
	return obj, nil
}
