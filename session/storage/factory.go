package storage

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/farma-console/internal/config"
	"github.com/rs/zerolog/log"
)

// Config is the subset of the console configuration the storage needs
type Config interface {
	config.StorageConfig
	GetDataFolder() string
}

// New selects the durable storage capability once, at construction time.
// A Redis backend that can't be reached degrades to Noop so the console still
// runs, just without remembering the session. The returned closer is never nil.
func New(ctx context.Context, c Config) (Store, func() error, error) {
	noClose := func() error { return nil }

	switch c.GetStorageBackend() {
	case config.StorageNone:
		return Noop{}, noClose, nil
	case config.StorageMemory:
		return NewInMemory(), noClose, nil
	case config.StorageFile:
		var options []FileOption
		if secret := c.GetStorageSecret(); secret != "" {
			options = append(options, WithSecret(secret))
		}
		f, err := NewFile(c.GetDataFolder(), options...)
		if err != nil {
			return nil, noClose, fmt.Errorf("[storage.New] %w", err)
		}
		return f, noClose, nil
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr: c.GetRedisAddr(),
			DB:   c.GetRedisDB(),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", c.GetRedisAddr()).Msg("Redis storage unavailable, session will not be remembered")
			_ = client.Close()
			return Noop{}, noClose, nil
		}
		return NewRedis(client, c.GetRedisPrefix()), client.Close, nil
	}
	return Noop{}, noClose, nil
}
