package bond

import (
	"errors"
	"fmt"
	"math"
	"reflect"
)

// Sentinel errors.
var (
	// ErrTypeMismatch matches any *TypeMismatchError.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNotObservable is returned by an ObservationCenter that does not
	// recognize the object it was handed.
	ErrNotObservable = errors.New("object is not observable")

	// ErrPathNotFound is returned when an observed path has no value.
	ErrPathNotFound = errors.New("path not found")
)

// TypeMismatchError reports an external value that cannot be converted to
// the element type of a Dynamic.
type TypeMismatchError struct {
	Path string
	Want reflect.Type
	Got  any
}

func (e *TypeMismatchError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("type mismatch: cannot convert %T to %v", e.Got, e.Want)
	}
	return fmt.Sprintf("type mismatch at %q: cannot convert %T to %v", e.Path, e.Got, e.Want)
}

// Is reports whether target is ErrTypeMismatch.
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// convert casts raw to T. Numeric kinds convert between each other the way a
// boxed number would, provided T can hold the value: floats truncate toward
// zero, while overflow, a sign change or a non-finite float is a mismatch.
// nil converts only to nilable types.
func convert[T any](path string, raw any) (T, error) {
	var zero T
	if v, ok := raw.(T); ok {
		return v, nil
	}

	want := reflect.TypeOf((*T)(nil)).Elem()
	if raw == nil {
		switch want.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return zero, nil
		}
		return zero, &TypeMismatchError{Path: path, Want: want, Got: raw}
	}

	rv := reflect.ValueOf(raw)
	if isNumeric(rv.Kind()) && isNumeric(want.Kind()) && fits(rv, want) {
		return rv.Convert(want).Interface().(T), nil
	}
	return zero, &TypeMismatchError{Path: path, Want: want, Got: raw}
}

// fits reports whether the numeric value v survives conversion to want
// without wrapping or changing sign.
func fits(v reflect.Value, want reflect.Type) bool {
	target := reflect.Zero(want)
	switch {
	case isInt(v.Kind()):
		i := v.Int()
		switch {
		case isInt(want.Kind()):
			return !target.OverflowInt(i)
		case isUint(want.Kind()):
			return i >= 0 && !target.OverflowUint(uint64(i))
		}
	case isUint(v.Kind()):
		u := v.Uint()
		switch {
		case isInt(want.Kind()):
			return u <= math.MaxInt64 && !target.OverflowInt(int64(u))
		case isUint(want.Kind()):
			return !target.OverflowUint(u)
		}
	default:
		f := v.Float()
		if isInt(want.Kind()) || isUint(want.Kind()) {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return false
			}
			f = math.Trunc(f)
		}
		switch {
		case isInt(want.Kind()):
			return f >= math.MinInt64 && f < math.MaxInt64 && !target.OverflowInt(int64(f))
		case isUint(want.Kind()):
			return f >= 0 && f < math.MaxUint64 && !target.OverflowUint(uint64(f))
		}
		return !target.OverflowFloat(f)
	}
	return true
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
