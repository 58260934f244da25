package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/zoobzio/bond"
)

// Watcher emits the value of a Redis string key for a bond.Source.
type Watcher struct {
	client *redis.Client
	key    string
}

// New creates a Watcher for key.
func New(client *redis.Client, key string) *Watcher {
	return &Watcher{client: client, key: key}
}

var _ bond.Watcher = (*Watcher)(nil)

// Watch emits the current value, if any, then every new value. Deleted or
// expired keys emit nothing.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	pubsub, err := subscribe(ctx, w.client, w.key)
	if err != nil {
		return nil, err
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer pubsub.Close()

		em := bond.NewEmitter(out)
		emit := func() bool {
			val, err := w.client.Get(ctx, w.key).Bytes()
			if err != nil {
				return !errors.Is(err, context.Canceled)
			}
			return em.Emit(ctx, val)
		}

		if !emit() {
			return
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if stringWrite(msg.Payload) && !emit() {
					return
				}
			}
		}
	}()

	return out, nil
}
