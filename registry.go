package bond

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"weak"

	"github.com/zoobzio/capitan"
)

// Tag names a bindable property of a control kind, such as "text" or
// "enabled".
type Tag string

type sinkKey struct {
	control any // weak.Pointer[C]
	tag     Tag
}

type sinkEntry struct {
	sink    any // *Bond[T]
	dispose func()
}

// Registry caches one Bond per (control, property) pair for as long as the
// control lives.
//
// Controls are tracked through weak pointers: the registry never keeps a
// control alive, and a collected control has its sinks evicted
// automatically. Release evicts eagerly from a control's own disposal path.
type Registry struct {
	mu      sync.Mutex
	entries map[sinkKey]sinkEntry
	tracked map[any][]Tag
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[sinkKey]sinkEntry),
		tracked: make(map[any][]Tag),
	}
}

// Sink returns the Bond for property tag of control, creating it on first
// access. Repeated calls for the same pair return the same Bond.
//
// The Bond writes through write only while control is alive; it holds no
// strong reference to control. Asking for an existing tag with a different
// value type is a programming error and panics.
func Sink[C any, T any](r *Registry, control *C, tag Tag, write func(*C, T)) *Bond[T] {
	wp := weak.Make(control)
	key := sinkKey{control: wp, tag: tag}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[key]; ok {
		b, ok := e.sink.(*Bond[T])
		if !ok {
			panic(fmt.Sprintf("bond: sink %q holds %T, requested *Bond[%s]", tag, e.sink, typeName[T]()))
		}
		return b
	}

	b := NewBond(func(v T) {
		if c := wp.Value(); c != nil {
			write(c, v)
		}
	})
	r.entries[key] = sinkEntry{sink: b, dispose: b.Dispose}

	tags, seen := r.tracked[wp]
	r.tracked[wp] = append(tags, tag)
	if !seen {
		runtime.AddCleanup(control, r.evict, any(wp))
	}
	return b
}

// Release disposes and evicts every sink cached for control.
func Release[C any](r *Registry, control *C) {
	r.evict(weak.Make(control))
}

func (r *Registry) evict(wp any) {
	r.mu.Lock()
	tags := r.tracked[wp]
	delete(r.tracked, wp)
	disposers := make([]func(), 0, len(tags))
	for _, tag := range tags {
		key := sinkKey{control: wp, tag: tag}
		if e, ok := r.entries[key]; ok {
			disposers = append(disposers, e.dispose)
			delete(r.entries, key)
		}
	}
	r.mu.Unlock()

	if len(disposers) == 0 {
		return
	}
	for _, dispose := range disposers {
		dispose()
	}
	for _, tag := range tags {
		capitan.Emit(context.Background(), SinkEvicted, KeyTag.Field(string(tag)))
	}
}

// Len returns the number of cached sinks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
