package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces every persisted fact-check entry, mirroring the
// content key under which the entry was produced.
const keyPrefix = "factcheck:"

// Conn opens and pings a redis client for the persistent cache tier.
func Conn(ctx context.Context, host, port, pass string, db int, timeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", host, port),
		DialTimeout: timeout,
		Password:    pass,
		DB:          db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// redisStore implements Store on a redis client, one JSON value per entry
// under the factcheck: namespace.
type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (r *redisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode entry %q: %w", key, err)
	}
	return e, true, nil
}

func (r *redisStore) Set(ctx context.Context, key string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyPrefix+key, data, 0).Err()
}

func (r *redisStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = keyPrefix + k
	}
	return r.client.Del(ctx, namespaced...).Err()
}

func (r *redisStore) List(ctx context.Context) ([]Entry, error) {
	keys, err := r.client.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, key := range keys {
		val, err := r.client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // removed between KEYS and GET
			}
			return nil, err
		}
		var e Entry
		if err := json.Unmarshal([]byte(val), &e); err != nil {
			continue // skip undecodable entries rather than fail the listing
		}
		entries = append(entries, e)
	}
	return entries, nil
}
