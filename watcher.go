package bond

import (
	"bytes"
	"context"
)

// Watcher observes an external source and emits raw payloads on a channel.
// Implementations emit the current payload immediately so a Source can seed
// its Dynamic.
type Watcher interface {
	// Watch begins observing the source and returns a channel that emits
	// raw bytes when changes occur. The channel is closed when the context
	// is canceled or an unrecoverable error occurs.
	//
	// Implementations should emit the current payload immediately.
	Watch(ctx context.Context) (<-chan []byte, error)
}

// Emitter forwards payloads from a Watcher goroutine, dropping a payload that
// repeats the previous one byte for byte.
type Emitter struct {
	out  chan<- []byte
	last []byte
	sent bool
}

// NewEmitter creates an Emitter writing to out.
func NewEmitter(out chan<- []byte) *Emitter {
	return &Emitter{out: out}
}

// Emit sends data unless it repeats the last payload. It returns false once
// ctx is done, which tells the caller to stop watching.
func (e *Emitter) Emit(ctx context.Context, data []byte) bool {
	if e.sent && bytes.Equal(data, e.last) {
		return ctx.Err() == nil
	}
	select {
	case e.out <- data:
		e.last = data
		e.sent = true
		return true
	case <-ctx.Done():
		return false
	}
}

// WatchFunc adapts a plain function to the Watcher interface.
type WatchFunc func(ctx context.Context) (<-chan []byte, error)

// Watch calls f(ctx).
func (f WatchFunc) Watch(ctx context.Context) (<-chan []byte, error) {
	return f(ctx)
}

// Chan returns a Watcher that hands ch to the Source unchanged. Paired with
// SyncMode it gives tests full control over when payloads are processed.
func Chan(ch <-chan []byte) Watcher {
	return WatchFunc(func(context.Context) (<-chan []byte, error) {
		return ch, nil
	})
}

// Relay returns a Watcher that copies ch into a channel owned by each Watch
// call. Repeated payloads are dropped and the copy closes when ctx is done
// or ch closes.
func Relay(ch <-chan []byte) Watcher {
	return WatchFunc(func(ctx context.Context) (<-chan []byte, error) {
		out := make(chan []byte)
		go func() {
			defer close(out)
			em := NewEmitter(out)
			for {
				select {
				case <-ctx.Done():
					return
				case data, ok := <-ch:
					if !ok || !em.Emit(ctx, data) {
						return
					}
				}
			}
		}()
		return out, nil
	})
}
