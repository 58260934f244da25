// Package nats provides a bond.Watcher for NATS KV keys using the JetStream
// Watch API.
package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/zoobzio/bond"
)

// Watcher emits the value of a NATS KV key.
type Watcher struct {
	kv  jetstream.KeyValue
	key string
}

// New creates a Watcher for key in the bucket behind kv.
func New(kv jetstream.KeyValue, key string) *Watcher {
	return &Watcher{kv: kv, key: key}
}

var _ bond.Watcher = (*Watcher)(nil)

// Watch emits the key's current value, if any, then every new value.
// Deletes and purges emit nothing.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	kw, err := w.kv.Watch(ctx, w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", w.key, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer kw.Stop()
		em := bond.NewEmitter(out)

		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-kw.Updates():
				if !ok {
					return
				}
				if data, ok := payload(entry); ok && !em.Emit(ctx, data) {
					return
				}
			}
		}
	}()

	return out, nil
}

// payload extracts the value carried by entry. A nil entry marks the end of
// the initial values and carries nothing.
func payload(entry jetstream.KeyValueEntry) ([]byte, bool) {
	if entry == nil {
		return nil, false
	}
	switch entry.Operation() {
	case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
		return nil, false
	}
	return entry.Value(), true
}
