// Package keypath is an in-memory observable object model addressed by dotted
// key paths, together with a bond.ObservationCenter over it.
//
// An Object stores nested map[string]any values. Observers registered through
// the Center are owned by the Object they watch; the Center itself keeps no
// state, so dropping an Object drops its observers with it.
package keypath

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/zoobzio/bond"
)

type observer struct {
	path    string
	token   bond.ObservationToken
	handler func(bond.Change)
}

// Object is a tree of values addressed by dotted paths such as
// "server.port".
type Object struct {
	mu        sync.Mutex
	root      map[string]any
	observers []*observer
}

// New creates an empty Object.
func New() *Object {
	return &Object{root: make(map[string]any)}
}

// FromMap creates an Object over m. Nested map[string]any values are
// addressable by path. The Object takes ownership of m.
func FromMap(m map[string]any) *Object {
	if m == nil {
		m = make(map[string]any)
	}
	return &Object{root: m}
}

// Load decodes data with codec into a new Object.
func Load(data []byte, codec bond.Codec) (*Object, error) {
	m := make(map[string]any)
	if err := codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", codec.ContentType(), err)
	}
	return FromMap(m), nil
}

// LoadFile reads path and decodes it with the codec matching its extension.
func LoadFile(path string) (*Object, error) {
	codec, ok := bond.CodecFor(path)
	if !ok {
		return nil, fmt.Errorf("no codec for %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data, codec)
}

// Get returns the value at path.
func (o *Object) Get(path string) (any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return lookup(o.root, path)
}

// Set stores v at path, creating intermediate maps as needed, and notifies
// observers of path, of every path below it, and of every path above it.
func (o *Object) Set(path string, v any) error {
	o.mu.Lock()
	parent, key, err := walk(o.root, path, true)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	parent[key] = v
	pending := o.affected(path)
	o.mu.Unlock()

	deliver(pending)
	return nil
}

// Remove deletes the value at path. Observers of the removed path and its
// descendants are notified without a new value.
func (o *Object) Remove(path string) {
	o.mu.Lock()
	parent, key, err := walk(o.root, path, false)
	if err != nil {
		o.mu.Unlock()
		return
	}
	if _, ok := parent[key]; !ok {
		o.mu.Unlock()
		return
	}
	delete(parent, key)
	pending := o.affected(path)
	o.mu.Unlock()

	deliver(pending)
}

// Observers returns the number of registered observers.
func (o *Object) Observers() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.observers)
}

func (o *Object) observe(path string, token bond.ObservationToken, handler func(bond.Change)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, &observer{path: path, token: token, handler: handler})
}

func (o *Object) unobserve(token bond.ObservationToken) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, obs := range o.observers {
		if obs.token == token {
			o.observers = append(o.observers[:i], o.observers[i+1:]...)
			return
		}
	}
}

type delivery struct {
	handler func(bond.Change)
	change  bond.Change
}

// affected collects the changes to deliver after path was written. Callers
// hold o.mu.
func (o *Object) affected(path string) []delivery {
	var out []delivery
	for _, obs := range o.observers {
		if !related(obs.path, path) {
			continue
		}
		v, ok := lookup(o.root, obs.path)
		out = append(out, delivery{
			handler: obs.handler,
			change: bond.Change{
				Path:   obs.path,
				Token:  obs.token,
				New:    v,
				HasNew: ok,
			},
		})
	}
	return out
}

func deliver(pending []delivery) {
	for _, d := range pending {
		d.handler(d.change)
	}
}

// related reports whether a write at written can change the value observed
// at observed.
func related(observed, written string) bool {
	return observed == written ||
		strings.HasPrefix(observed, written+".") ||
		strings.HasPrefix(written, observed+".")
}

func lookup(root map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var cur any = root
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func walk(root map[string]any, path string, create bool) (map[string]any, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("empty path: %w", bond.ErrPathNotFound)
	}
	segs := strings.Split(path, ".")
	cur := root
	for i, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg]
		if !ok {
			if !create {
				return nil, "", bond.ErrPathNotFound
			}
			child := make(map[string]any)
			cur[seg] = child
			cur = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return nil, "", fmt.Errorf("%q is a %T, not an object", strings.Join(segs[:i+1], "."), next)
		}
		cur = child
	}
	return cur, segs[len(segs)-1], nil
}
