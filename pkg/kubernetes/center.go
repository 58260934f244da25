package kubernetes

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/bond"
	"github.com/zoobzio/clockz"
	"k8s.io/client-go/kubernetes"
)

// Center is a bond.ObservationCenter over ConfigMaps and Secrets. Objects are
// Ref values and paths are data keys; values are delivered as strings.
//
// Each observation runs its own watch goroutine and hands changes to the
// configured bond.Dispatcher.
type Center struct {
	client      kubernetes.Interface
	clock       clockz.Clock
	retry       time.Duration
	dispatch    bond.Dispatcher
	readTimeout time.Duration

	mu   sync.Mutex
	subs map[bond.ObservationToken]*subscription
}

type subscription struct {
	token  bond.ObservationToken
	cancel context.CancelFunc
}

func (s *subscription) Token() bond.ObservationToken { return s.token }

// NewCenter creates a Center backed by client.
func NewCenter(client kubernetes.Interface, opts ...Option) *Center {
	s := newSettings(opts)
	return &Center{
		client:      client,
		clock:       s.clock,
		retry:       s.retry,
		dispatch:    s.dispatch,
		readTimeout: s.readTimeout,
		subs:        make(map[bond.ObservationToken]*subscription),
	}
}

var _ bond.ObservationCenter = (*Center)(nil)

// Read returns the value of data key path in the resource named by object.
func (c *Center) Read(object any, path string) (any, error) {
	snap, err := c.read(object)
	if err != nil {
		return nil, err
	}
	v, ok := snap.value(path)
	if !ok {
		return nil, fmt.Errorf("key %q: %w", path, bond.ErrPathNotFound)
	}
	return string(v), nil
}

// Observe starts watching the resource named by object. Changes to key path
// are delivered stamped with token; removal of the key or the resource is
// delivered without a new value.
func (c *Center) Observe(object any, path string, token bond.ObservationToken, handler func(bond.Change)) (bond.Subscription, error) {
	ref, err := asRef(object)
	if err != nil {
		return nil, err
	}
	if _, err := c.read(ref); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{token: token, cancel: cancel}

	c.mu.Lock()
	c.subs[token] = sub
	c.mu.Unlock()

	// The first snapshot is delivered unconditionally.
	var (
		last            []byte
		present, seeded bool
	)
	go follow(ctx, c.client, ref, c.clock, c.retry, func(s snapshot) {
		v, ok := s.value(path)
		if seeded && ok == present && bytes.Equal(v, last) {
			return
		}
		seeded = true
		last, present = v, ok
		change := bond.Change{Path: path, Token: token, HasNew: ok}
		if ok {
			change.New = string(v)
		}
		c.dispatch(func() {
			if ctx.Err() == nil {
				handler(change)
			}
		})
	})

	return sub, nil
}

// Unobserve stops the watch behind sub.
func (c *Center) Unobserve(sub bond.Subscription) {
	c.mu.Lock()
	s, ok := c.subs[sub.Token()]
	delete(c.subs, sub.Token())
	c.mu.Unlock()

	if ok {
		s.cancel()
	}
}

// Active returns the number of running observations.
func (c *Center) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Close stops every observation.
func (c *Center) Close() {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[bond.ObservationToken]*subscription)
	c.mu.Unlock()

	for _, s := range subs {
		s.cancel()
	}
}

func (c *Center) read(object any) (snapshot, error) {
	ref, err := asRef(object)
	if err != nil {
		return snapshot{}, err
	}
	ctx, cancel := c.clock.WithTimeout(context.Background(), c.readTimeout)
	defer cancel()
	snap, _, err := fetch(ctx, c.client, ref)
	return snap, err
}

func asRef(object any) (Ref, error) {
	switch r := object.(type) {
	case Ref:
		return r, nil
	case *Ref:
		if r != nil {
			return *r, nil
		}
	}
	return Ref{}, fmt.Errorf("%T: %w", object, bond.ErrNotObservable)
}
