// Package firestore provides a bond.Watcher for Firestore documents using
// realtime snapshot listeners.
package firestore

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/zoobzio/bond"
)

// DefaultField is the document field holding the payload.
const DefaultField = "data"

// Watcher emits one field of a Firestore document.
type Watcher struct {
	doc   *firestore.DocumentRef
	field string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithField selects the field holding the payload. An empty field emits the
// whole document encoded as JSON.
func WithField(field string) Option {
	return func(w *Watcher) { w.field = field }
}

// New creates a Watcher for collection/document.
func New(client *firestore.Client, collection, document string, opts ...Option) *Watcher {
	w := &Watcher{
		doc:   client.Collection(collection).Doc(document),
		field: DefaultField,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ bond.Watcher = (*Watcher)(nil)

// Watch emits the payload of every snapshot of the document. Missing
// documents and snapshots without the field emit nothing.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte)

	go func() {
		defer close(out)
		snapshots := w.doc.Snapshots(ctx)
		defer snapshots.Stop()
		em := bond.NewEmitter(out)

		for {
			snap, err := snapshots.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if !snap.Exists() {
				continue
			}
			data, ok := payload(snap.Data(), w.field)
			if ok && !em.Emit(ctx, data) {
				return
			}
		}
	}()

	return out, nil
}

// payload extracts the bytes to emit from document data.
func payload(doc map[string]any, field string) ([]byte, bool) {
	if field == "" {
		data, err := json.Marshal(doc)
		return data, err == nil
	}
	switch v := doc[field].(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	}
	return nil, false
}

// Put writes data into the payload field of collection/document, creating
// the document when needed.
func Put(ctx context.Context, client *firestore.Client, collection, document string, data []byte) error {
	_, err := client.Collection(collection).Doc(document).Set(ctx,
		map[string]any{DefaultField: data},
		firestore.MergeAll,
	)
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collection, document, err)
	}
	return nil
}
