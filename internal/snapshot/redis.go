package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"safespace/internal/core"
)

const defaultRedisPrefix = "safespace:"

// RedisKV is a core.KeyValue on Redis strings. Expiry is delegated to Redis.
type RedisKV struct {
	rdb    *redis.Client
	prefix string
}

var _ core.KeyValue = (*RedisKV)(nil)

// NewRedisKV connects to redisURL (for example redis://:pass@host:6379/0) and
// fails fast when the server does not answer.
func NewRedisKV(ctx context.Context, redisURL, prefix string) (*RedisKV, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	return NewRedisKVFromClient(ctx, redis.NewClient(opt), prefix)
}

func NewRedisKVFromClient(ctx context.Context, rdb *redis.Client, prefix string) (*RedisKV, error) {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisKV{rdb: rdb, prefix: prefix}, nil
}

func (r *RedisKV) key(key string) string { return r.prefix + key }

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

func (r *RedisKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}

func (r *RedisKV) Close() error { return r.rdb.Close() }
