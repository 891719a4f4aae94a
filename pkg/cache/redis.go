// pkg/cache/redis.go
package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisSessionStore keeps each session as one Redis hash, so clearing a run
// is a single HDEL and logging out a single DEL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(sid string) string {
	return "session:" + sid
}

func (c *RedisSessionStore) Get(ctx context.Context, sid, key string) ([]byte, bool, error) {
	data, err := c.client.HGet(ctx, sessionKey(sid), key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisSessionStore) Set(ctx context.Context, sid, key string, value []byte) error {
	k := sessionKey(sid)

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, k, key, value)
	pipe.Expire(ctx, k, c.ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisSessionStore) ClearKeys(ctx context.Context, sid string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.HDel(ctx, sessionKey(sid), keys...).Err()
}

func (c *RedisSessionStore) ClearAll(ctx context.Context, sid string) error {
	return c.client.Del(ctx, sessionKey(sid)).Err()
}

func (c *RedisSessionStore) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
