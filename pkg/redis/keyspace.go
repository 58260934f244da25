// Package redis observes Redis keys through keyspace notifications.
//
// Watcher feeds a string key into a bond.Source. Center exposes the fields of
// a hash as observable paths so bond.ObserveKeyPath can mirror them in a
// Dynamic.
//
// Both require keyspace notifications to be enabled on the server:
//
//	CONFIG SET notify-keyspace-events KEA
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// keyspaceChannel is the notification channel for key in database db.
func keyspaceChannel(db int, key string) string {
	return fmt.Sprintf("__keyspace@%d__:%s", db, key)
}

// stringWrite reports whether event can change the value of a string key.
func stringWrite(event string) bool {
	switch event {
	case "set", "setrange", "append", "incrby", "incrbyfloat", "decrby", "getset", "getdel", "del", "expired", "evicted", "rename_to":
		return true
	}
	return false
}

// hashWrite reports whether event can change a field of a hash key.
func hashWrite(event string) bool {
	switch event {
	case "hset", "hdel", "hincrby", "hincrbyfloat", "hexpired", "del", "expired", "evicted", "rename_to":
		return true
	}
	return false
}

// subscribe opens a confirmed subscription to the keyspace channel of key.
func subscribe(ctx context.Context, client *redis.Client, key string) (*redis.PubSub, error) {
	pubsub := client.Subscribe(ctx, keyspaceChannel(client.Options().DB, key))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to keyspace notifications for %s: %w", key, err)
	}
	return pubsub, nil
}

// store is the part of Redis a Center reads from.
type store interface {
	// hget reports false without error when the hash or field is missing.
	hget(ctx context.Context, key, field string) (string, bool, error)
	// events streams keyspace event names for key until ctx is done.
	events(ctx context.Context, key string) (<-chan string, error)
}

type clientStore struct {
	client *redis.Client
}

func (s clientStore) hget(ctx context.Context, key, field string) (string, bool, error) {
	v, err := s.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	return v, err == nil, err
}

func (s clientStore) events(ctx context.Context, key string) (<-chan string, error) {
	pubsub, err := subscribe(ctx, s.client, key)
	if err != nil {
		return nil, err
	}
	out := make(chan string)
	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
