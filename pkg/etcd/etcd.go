// Package etcd provides a bond.Watcher for etcd keys using the Watch API.
package etcd

import (
	"context"
	"fmt"

	"github.com/zoobzio/bond"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Watcher emits the value of an etcd key.
type Watcher struct {
	client *clientv3.Client
	key    string
}

// New creates a Watcher for key.
func New(client *clientv3.Client, key string) *Watcher {
	return &Watcher{client: client, key: key}
}

var _ bond.Watcher = (*Watcher)(nil)

// Watch emits the key's current value, if it exists, then the value of every
// put. Deletions emit nothing. When the watched revision is compacted away
// the key is read again and watching resumes from the fresh revision.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	value, rev, err := w.get(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		em := bond.NewEmitter(out)

		for {
			if value != nil && !em.Emit(ctx, value) {
				return
			}
			rev, err = w.follow(ctx, em, rev+1)
			if err == nil || ctx.Err() != nil {
				return
			}
			if value, rev, err = w.get(ctx); err != nil {
				return
			}
		}
	}()

	return out, nil
}

func (w *Watcher) get(ctx context.Context) ([]byte, int64, error) {
	resp, err := w.client.Get(ctx, w.key)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get %s: %w", w.key, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, resp.Header.Revision, nil
	}
	return resp.Kvs[0].Value, resp.Header.Revision, nil
}

// follow forwards puts from rev onward. It returns the last revision seen
// and a non-nil error when the watch must be re-established.
func (w *Watcher) follow(ctx context.Context, em *bond.Emitter, rev int64) (int64, error) {
	last := rev - 1
	for resp := range w.client.Watch(ctx, w.key, clientv3.WithRev(rev)) {
		if err := resp.Err(); err != nil {
			return last, err
		}
		for _, event := range resp.Events {
			last = event.Kv.ModRevision
			if event.Type != clientv3.EventTypePut {
				continue
			}
			if !em.Emit(ctx, event.Kv.Value) {
				return last, nil
			}
		}
	}
	return last, ctx.Err()
}
