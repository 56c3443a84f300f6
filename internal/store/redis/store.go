package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// maxTxAttempts bounds the optimistic retries of one collection update.
const maxTxAttempts = 8

// Store keeps users, bookmarks and session slots as JSON values in Redis.
// Every read-modify-write of a collection runs under WATCH.
type Store struct {
	client *redis.Client

	// afterSnapshot runs between the user snapshot and the scan of a sweep.
	afterSnapshot func()
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// readCollection decodes the JSON array stored at key. A missing key is an
// empty collection.
func readCollection[T any](ctx context.Context, g getter, key string) ([]T, error) {
	data, err := g.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return items, nil
}

// updateCollection applies fn to the collection at key inside a WATCH
// transaction and retries when another writer got there first. An error
// from fn aborts without writing. An empty result deletes the key.
func updateCollection[T any](ctx context.Context, client *redis.Client, key string, fn func([]T) ([]T, error)) error {
	txf := func(tx *redis.Tx) error {
		items, err := readCollection[T](ctx, tx, key)
		if err != nil {
			return err
		}

		next, err := fn(items)
		if err != nil {
			return err
		}

		var data []byte
		if len(next) > 0 {
			if data, err = json.Marshal(next); err != nil {
				return fmt.Errorf("failed to marshal %s: %w", key, err)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if data == nil {
				pipe.Del(ctx, key)
			} else {
				pipe.Set(ctx, key, data, 0)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to update %s: too many concurrent writers", key)
}
