// Package consul provides a bond.Watcher for Consul KV keys using blocking
// queries.
package consul

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/zoobzio/bond"
	"github.com/zoobzio/clockz"
)

// DefaultRetryInterval is the pause after a failed blocking query.
const DefaultRetryInterval = time.Second

// Watcher emits the value of a Consul KV key.
type Watcher struct {
	kv    *api.KV
	key   string
	wait  time.Duration
	retry time.Duration
	clock clockz.Clock
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithWaitTime bounds each blocking query. Zero leaves the server default.
func WithWaitTime(d time.Duration) Option {
	return func(w *Watcher) { w.wait = d }
}

// WithRetryInterval sets the pause after a failed query.
func WithRetryInterval(d time.Duration) Option {
	return func(w *Watcher) { w.retry = d }
}

// WithClock sets the clock used for retry pauses.
func WithClock(clock clockz.Clock) Option {
	return func(w *Watcher) { w.clock = clock }
}

// New creates a Watcher for key.
func New(client *api.Client, key string, opts ...Option) *Watcher {
	w := &Watcher{
		kv:    client.KV(),
		key:   key,
		retry: DefaultRetryInterval,
		clock: clockz.RealClock,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ bond.Watcher = (*Watcher)(nil)

// Watch emits the key's current value, if it exists, then every new value.
// Failed queries are retried until ctx is done.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	pair, meta, err := w.kv.Get(w.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", w.key, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		em := bond.NewEmitter(out)

		if pair != nil && !em.Emit(ctx, pair.Value) {
			return
		}

		index := meta.LastIndex
		for ctx.Err() == nil {
			opts := (&api.QueryOptions{WaitIndex: index, WaitTime: w.wait}).WithContext(ctx)
			pair, meta, err := w.kv.Get(w.key, opts)
			if err != nil {
				if !w.pause(ctx) {
					return
				}
				continue
			}
			index = nextIndex(index, meta.LastIndex)
			if pair != nil && !em.Emit(ctx, pair.Value) {
				return
			}
		}
	}()

	return out, nil
}

func (w *Watcher) pause(ctx context.Context) bool {
	timer := w.clock.NewTimer(w.retry)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C():
		return true
	}
}

// nextIndex picks the WaitIndex for the following blocking query. An index
// that went backwards means the server state was reset, so the query starts
// over from zero.
func nextIndex(prev, last uint64) uint64 {
	if last < prev {
		return 0
	}
	return last
}
