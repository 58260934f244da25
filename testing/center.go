package testing

import (
	"fmt"
	"sync"

	"github.com/zoobzio/bond"
)

// Center is an in-memory bond.ObservationCenter keyed by path alone; the
// object argument is ignored. Changes are delivered synchronously.
//
// Unlike a real collaborator it can broadcast changes stamped with an
// arbitrary token, which lets tests exercise token filtering.
type Center struct {
	mu       sync.Mutex
	values   map[string]any
	handlers map[bond.ObservationToken]handler
}

type handler struct {
	path string
	fn   func(bond.Change)
}

type centerSub bond.ObservationToken

func (s centerSub) Token() bond.ObservationToken { return bond.ObservationToken(s) }

// NewCenter creates a Center seeded with values.
func NewCenter(values map[string]any) *Center {
	c := &Center{
		values:   make(map[string]any, len(values)),
		handlers: make(map[bond.ObservationToken]handler),
	}
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

var _ bond.ObservationCenter = (*Center)(nil)

// Read implements bond.ObservationCenter.
func (c *Center) Read(_ any, path string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[path]
	if !ok {
		return nil, fmt.Errorf("%q: %w", path, bond.ErrPathNotFound)
	}
	return v, nil
}

// Observe implements bond.ObservationCenter.
func (c *Center) Observe(_ any, path string, token bond.ObservationToken, fn func(bond.Change)) (bond.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[token] = handler{path: path, fn: fn}
	return centerSub(token), nil
}

// Unobserve implements bond.ObservationCenter.
func (c *Center) Unobserve(sub bond.Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, sub.Token())
}

// Observers returns the number of registered handlers.
func (c *Center) Observers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

// Set stores v at path and notifies the observers of path.
func (c *Center) Set(path string, v any) {
	c.mu.Lock()
	c.values[path] = v
	c.mu.Unlock()
	c.deliver(path, func(tok bond.ObservationToken) bond.Change {
		return bond.Change{Path: path, Token: tok, New: v, HasNew: true}
	})
}

// Remove deletes path and notifies its observers without a new value.
func (c *Center) Remove(path string) {
	c.mu.Lock()
	delete(c.values, path)
	c.mu.Unlock()
	c.deliver(path, func(tok bond.ObservationToken) bond.Change {
		return bond.Change{Path: path, Token: tok}
	})
}

// Broadcast hands a change stamped with token to every observer of path,
// whatever token it registered with.
func (c *Center) Broadcast(path string, token bond.ObservationToken, v any) {
	c.deliver(path, func(bond.ObservationToken) bond.Change {
		return bond.Change{Path: path, Token: token, New: v, HasNew: true}
	})
}

func (c *Center) deliver(path string, change func(bond.ObservationToken) bond.Change) {
	c.mu.Lock()
	var pending []func()
	for tok, h := range c.handlers {
		if h.path != path {
			continue
		}
		ch, fn := change(tok), h.fn
		pending = append(pending, func() { fn(ch) })
	}
	c.mu.Unlock()

	for _, p := range pending {
		p()
	}
}
