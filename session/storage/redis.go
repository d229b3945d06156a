package storage

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/farma-console/internal/errors"
)

// Redis keeps the session record in a Redis instance, so several console
// processes on the same workstation share one remembered session.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Store = (*Redis)(nil)

// NewRedis wraps an existing client. Keys are stored as prefix+key.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.ErrKeyRequired
	}
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if err == redis.Nil {
		return "", errors.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "[Redis.Get] %s", key)
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.ErrKeyRequired
	}
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "[Redis.Set] %s", key)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if key == "" {
		return errors.ErrKeyRequired
	}
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return errors.Wrapf(err, "[Redis.Remove] %s", key)
	}
	return nil
}
