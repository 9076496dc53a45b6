package redis

import (
	"context"

	"github.com/reponseashimwe/ml-pipeline-database/internal/common/config"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient builds a client from cfg; it does not dial until first use
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	return redis.NewClient(opts)
}

// Connect builds a client and pings it; the client is closed when the ping fails
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := NewRedisClient(cfg)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// Close closes client if it is non-nil
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
