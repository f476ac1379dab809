package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/craftline/aps-engine/pkg/config"
)

// NewRedisClient builds a Redis client and verifies it with a ping. An empty
// host means Redis is not configured: the client is nil, the schedule cache
// becomes a no-op, and reads fall through to PostgreSQL.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
