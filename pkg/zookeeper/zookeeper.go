// Package zookeeper provides a bond.Watcher for ZooKeeper nodes using
// one-shot data watches.
package zookeeper

import (
	"context"
	"errors"

	"github.com/go-zookeeper/zk"
	"github.com/zoobzio/bond"
)

// Conn is the subset of *zk.Conn the Watcher uses.
type Conn interface {
	GetW(path string) ([]byte, *zk.Stat, <-chan zk.Event, error)
	ExistsW(path string) (bool, *zk.Stat, <-chan zk.Event, error)
}

var _ Conn = (*zk.Conn)(nil)

// Watcher emits the data of a ZooKeeper node.
type Watcher struct {
	conn Conn
	path string
}

// New creates a Watcher for the node at path.
func New(conn Conn, path string) *Watcher {
	return &Watcher{conn: conn, path: path}
}

var _ bond.Watcher = (*Watcher)(nil)

// Watch emits the node's current data, then its data after every change.
// A node that does not exist yet is waited for; a deleted node emits
// nothing until it is created again.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte)

	go func() {
		defer close(out)
		em := bond.NewEmitter(out)

		for {
			events, err := w.arm(ctx, em)
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-events:
			}
		}
	}()

	return out, nil
}

// arm emits the node's data if it exists and returns the channel of the
// watch set while reading it.
func (w *Watcher) arm(ctx context.Context, em *bond.Emitter) (<-chan zk.Event, error) {
	data, _, events, err := w.conn.GetW(w.path)
	switch {
	case err == nil:
		if !em.Emit(ctx, data) {
			return nil, ctx.Err()
		}
		return events, nil
	case errors.Is(err, zk.ErrNoNode):
		exists, _, events, err := w.conn.ExistsW(w.path)
		if err != nil {
			return nil, err
		}
		if exists {
			// Created between the two calls; the exists watch still fires on
			// the next change, so read again right away.
			return closed(), nil
		}
		return events, nil
	default:
		return nil, err
	}
}

func closed() <-chan zk.Event {
	ch := make(chan zk.Event)
	close(ch)
	return ch
}
