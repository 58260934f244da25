package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zoobzio/bond"
)

// Hash names a Redis hash. Its fields are the observable paths.
type Hash string

// Center is a bond.ObservationCenter over Redis hashes. Values are delivered
// as strings.
type Center struct {
	store       store
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

// Option configures a Center.
type Option func(*Center)

// WithDispatcher sets how changes are handed to observers.
// Default: bond.Inline on the notification goroutine.
func WithDispatcher(d bond.Dispatcher) Option {
	return func(c *Center) { c.dispatch = d }
}

// WithReadTimeout bounds synchronous reads.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Center) { c.readTimeout = d }
}

// NewCenter creates a Center backed by client.
func NewCenter(client *redis.Client, opts ...Option) *Center {
	return newCenter(clientStore{client: client}, opts)
}

func newCenter(st store, opts []Option) *Center {
	c := &Center{
		store:       st,
		dispatch:    bond.Inline,
		readTimeout: 5 * time.Second,
		subs:        make(map[bond.ObservationToken]*subscription),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ bond.ObservationCenter = (*Center)(nil)

// Read returns field path of the hash named by object.
func (c *Center) Read(object any, path string) (any, error) {
	h, err := asHash(object)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.readTimeout)
	defer cancel()

	v, found, err := c.field(ctx, h, path)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("field %q of %s: %w", path, h, bond.ErrPathNotFound)
	}
	return v, nil
}

// Observe subscribes to keyspace notifications for the hash named by object
// and delivers changes to field path stamped with token. A deleted field or
// hash is delivered without a new value.
func (c *Center) Observe(object any, path string, token bond.ObservationToken, handler func(bond.Change)) (bond.Subscription, error) {
	h, err := asHash(object)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := c.store.events(ctx, string(h))
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &subscription{token: token, cancel: cancel}
	c.mu.Lock()
	c.subs[token] = sub
	c.mu.Unlock()

	go func() {
		var (
			last            string
			present, seeded bool
		)
		// The field is read once the subscription is live, and that first
		// read is delivered unconditionally.
		refresh := func() {
			v, found, err := c.field(ctx, h, path)
			if err != nil || (seeded && found == present && v == last) {
				return
			}
			seeded = true
			last, present = v, found
			change := bond.Change{Path: path, Token: token, HasNew: found}
			if found {
				change.New = v
			}
			c.dispatch(func() {
				if ctx.Err() == nil {
					handler(change)
				}
			})
		}

		refresh()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				if hashWrite(event) {
					refresh()
				}
			}
		}
	}()

	return sub, nil
}

// Unobserve closes the subscription behind sub.
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

func (c *Center) field(ctx context.Context, h Hash, field string) (string, bool, error) {
	v, found, err := c.store.hget(ctx, string(h), field)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s.%s: %w", h, field, err)
	}
	return v, found, nil
}

func asHash(object any) (Hash, error) {
	switch h := object.(type) {
	case Hash:
		return h, nil
	case *Hash:
		if h != nil {
			return *h, nil
		}
	}
	return "", fmt.Errorf("%T: %w", object, bond.ErrNotObservable)
}
