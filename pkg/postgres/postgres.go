// Package postgres watches one row of a key/value table through
// LISTEN/NOTIFY.
//
// Writers notify the channel with the row key as payload, usually from a
// trigger:
//
//	CREATE FUNCTION bond_notify() RETURNS trigger AS $$
//	BEGIN
//	    PERFORM pg_notify('settings_changed', NEW.key);
//	    RETURN NEW;
//	END;
//	$$ LANGUAGE plpgsql;
//
//	CREATE TRIGGER bond_notify AFTER INSERT OR UPDATE ON config
//	    FOR EACH ROW EXECUTE FUNCTION bond_notify();
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zoobzio/bond"
)

// DefaultTable holds key and value columns.
const DefaultTable = "config"

// Watcher emits the value column of the row named by key.
type Watcher struct {
	pool    *pgxpool.Pool
	channel string
	key     string
	table   string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithTable overrides DefaultTable.
func WithTable(table string) Option {
	return func(w *Watcher) { w.table = table }
}

// New creates a Watcher for key. channel is the pg_notify channel.
func New(pool *pgxpool.Pool, channel, key string, opts ...Option) *Watcher {
	w := &Watcher{pool: pool, channel: channel, key: key, table: DefaultTable}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ bond.Watcher = (*Watcher)(nil)

// Watch holds a pooled connection in LISTEN mode until ctx is done or the
// connection fails. The row is re-read after every notification naming the
// key; a missing row emits nothing.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	if _, err := conn.Exec(ctx, listenSQL(w.channel)); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on %s: %w", w.channel, err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer conn.Release()
		w.listen(ctx, conn.Conn(), bond.NewEmitter(out))
	}()
	return out, nil
}

func (w *Watcher) listen(ctx context.Context, conn *pgx.Conn, em *bond.Emitter) {
	for refresh := true; ; {
		if refresh {
			value, err := w.fetch(ctx)
			if err == nil && value != nil && !em.Emit(ctx, value) {
				return
			}
		}
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return
		}
		refresh = n.Payload == w.key
	}
}

// fetch returns nil without error when the row does not exist.
func (w *Watcher) fetch(ctx context.Context) ([]byte, error) {
	var value []byte
	err := w.pool.QueryRow(ctx, selectSQL(w.table), w.key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return value, err
}

// Put upserts value under key in table and notifies channel, in one
// transaction. It is the write side for tables without a trigger.
func Put(ctx context.Context, pool *pgxpool.Pool, table, channel, key string, value []byte) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertSQL(table), key, value); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
		_, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)", channel, key)
		return err
	})
}

func listenSQL(channel string) string {
	return "LISTEN " + pgx.Identifier{channel}.Sanitize()
}

func selectSQL(table string) string {
	return "SELECT value FROM " + pgx.Identifier{table}.Sanitize() + " WHERE key = $1"
}

func upsertSQL(table string) string {
	return "INSERT INTO " + pgx.Identifier{table}.Sanitize() +
		" (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value"
}
